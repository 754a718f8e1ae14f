package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"ratematch/internal/rates"

	"github.com/spf13/viper"
)

//go:embed currency_codes.yaml
var defaultCurrencyCodes []byte

// CountryCurrency is one row of the country to currency code table.
type CountryCurrency struct {
	Country string `mapstructure:"country"`
	Code    string `mapstructure:"code"`
}

type classificationFile struct {
	Currencies []CountryCurrency `mapstructure:"currencies"`
}

// LoadClassifier builds the fiat classifier from the table at path, or from the
// built-in table when path is empty.
func LoadClassifier(path string) (*rates.Classifier, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path == "" {
		if err := v.ReadConfig(bytes.NewReader(defaultCurrencyCodes)); err != nil {
			return nil, fmt.Errorf("read built-in currency table: %w", err)
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read currency table %s: %w", path, err)
		}
	}

	var file classificationFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decode currency table: %w", err)
	}
	if len(file.Currencies) == 0 {
		return nil, fmt.Errorf("currency table is empty")
	}

	codes := make([]string, 0, len(file.Currencies))
	for i, row := range file.Currencies {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			return nil, fmt.Errorf("currency table row %d (%s): missing code", i, row.Country)
		}
		codes = append(codes, code)
	}
	return rates.NewClassifier(codes...), nil
}
