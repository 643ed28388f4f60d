// Package config resolves command line defaults from a YAML file and
// validates settings shared by the commands.
//
// A config file sets any flag by name, globally or per command:
//
//	tax_currency: aud
//	timezone: ${TAX_TIMEZONE}
//	calculate:
//	  queue_type: lifo
//
// Environment variables in the file are expanded before parsing.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = "capitalg.yaml"

// YAML is a kong.ConfigurationLoader for YAML files.
func YAML(r io.Reader) (kong.Resolver, error) {
	values, err := Parse(r)
	if err != nil {
		return nil, err
	}

	var resolver kong.ResolverFunc = func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if value, ok := lookup(section, flag.Name); ok {
					return value, nil
				}
			}
		}
		if value, ok := lookup(values, flag.Name); ok {
			return value, nil
		}
		return nil, nil
	}

	return resolver, nil
}

// Parse reads a YAML config document after expanding ${VAR} references.
func Parse(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	values := make(map[string]any)
	if err := yaml.Unmarshal([]byte(expanded), &values); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return values, nil
}

// lookup finds a flag by its name or with dashes written as underscores.
// Scalars are returned as strings for kong to decode; sections are skipped.
func lookup(values map[string]any, name string) (string, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		value, ok := values[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			continue
		case time.Time:
			return v.Format(time.DateOnly), true
		default:
			return fmt.Sprint(v), true
		}
	}
	return "", false
}

// ValidateCurrency checks that code is an ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) == nil {
		return fmt.Errorf("unknown tax currency %q, expected an ISO 4217 code such as aud or usd", code)
	}
	return nil
}
