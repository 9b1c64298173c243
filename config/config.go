// Package config loads shop-level settings that are not stored in collections:
// company letterhead, tax defaults and document numbering prefixes.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const DefaultPath = "shop.yaml"

type Config struct {
	Company  Company  `yaml:"company"`
	Tax      Tax      `yaml:"tax"`
	Numbers  Numbers  `yaml:"numbers"`
	Bank     Bank     `yaml:"bank"`
	Invoices Invoices `yaml:"invoices"`
}

type Company struct {
	Name    string `yaml:"name" env:"SHOP_COMPANY_NAME" env-default:"Print Studio"`
	Address string `yaml:"address" env:"SHOP_COMPANY_ADDRESS" env-default:""`
	Email   string `yaml:"email" env:"SHOP_COMPANY_EMAIL" env-default:""`
	Phone   string `yaml:"phone" env:"SHOP_COMPANY_PHONE" env-default:""`
	GSTIN   string `yaml:"gstin" env:"SHOP_COMPANY_GSTIN" env-default:""`
	State   string `yaml:"state" env:"SHOP_COMPANY_STATE" env-default:"Maharashtra"`
}

type Tax struct {
	DefaultGSTPercent float64 `yaml:"default_gst_percent" env:"SHOP_DEFAULT_GST_PERCENT" env-default:"18"`
	HSNCode           string  `yaml:"hsn_code" env:"SHOP_HSN_CODE" env-default:"4911"`
}

type Numbers struct {
	InvoicePrefix string `yaml:"invoice_prefix" env:"SHOP_INVOICE_PREFIX" env-default:"INV"`
	OrderPrefix   string `yaml:"order_prefix" env:"SHOP_ORDER_PREFIX" env-default:"ORD"`
}

type Bank struct {
	Beneficiary string `yaml:"beneficiary" env:"SHOP_BANK_BENEFICIARY" env-default:""`
	Name        string `yaml:"name" env:"SHOP_BANK_NAME" env-default:""`
	AccountNo   string `yaml:"account_no" env:"SHOP_BANK_ACCOUNT_NO" env-default:""`
	IFSC        string `yaml:"ifsc" env:"SHOP_BANK_IFSC" env-default:""`
}

type Invoices struct {
	Terms string `yaml:"terms" env:"SHOP_INVOICE_TERMS" env-default:"Payment due within 15 days of invoice date."`
}

// Load reads path when it exists and falls back to environment variables
// (with defaults) otherwise.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return &cfg, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}

// Default returns the env/default-derived config, ignoring any file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// only reachable with malformed env values
		return &Config{
			Company: Company{Name: "Print Studio"},
			Tax:     Tax{DefaultGSTPercent: 18, HSNCode: "4911"},
			Numbers: Numbers{InvoicePrefix: "INV", OrderPrefix: "ORD"},
		}
	}
	return cfg
}
