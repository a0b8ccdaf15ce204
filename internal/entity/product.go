package entity

import "github.com/shopspring/decimal"

// Prices is the price schedule of a product. Tier prices are optional;
// a flat-priced product only carries Base.
type Prices struct {
	Base   decimal.Decimal     `json:"base"`
	Tier3  decimal.NullDecimal `json:"tier3"`
	Tier6  decimal.NullDecimal `json:"tier6"`
	Tier12 decimal.NullDecimal `json:"tier12"`
}

type Product struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Prices      Prices `json:"prices"`
}

/*
Schema MySQL for products table:
CREATE TABLE `products` (
  `id` int(11) NOT NULL AUTO_INCREMENT,
  `name` varchar(255) NOT NULL UNIQUE,
  `category` varchar(255) NOT NULL DEFAULT '',
  `description` text NOT NULL,
  `image` varchar(1024) NOT NULL DEFAULT '',
  `price_base` decimal(12,2) NOT NULL,
  `price_x3` decimal(12,2) NULL,
  `price_x6` decimal(12,2) NULL,
  `price_x12` decimal(12,2) NULL,
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
