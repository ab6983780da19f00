// Package config builds component configurations from CLI flag values.
package config

import (
	"time"

	"partner-revenue-service/internal/aggregator"
	"partner-revenue-service/internal/reporter"
	"partner-revenue-service/internal/store"
	"partner-revenue-service/internal/uploads"

	"github.com/spf13/viper"
)

// CreateStoreConfig builds the record-store client configuration from the
// bound flags and environment.
func CreateStoreConfig() *store.HTTPConfig {
	return &store.HTTPConfig{
		BaseURL: viper.GetString("store-url"),
		Token:   viper.GetString("store-token"),
		Timeout: viper.GetDuration("store-timeout"),
	}
}

// CreateUploadConfig builds the upload lifecycle configuration.
func CreateUploadConfig(batchSize int, batchDelay time.Duration) *uploads.Config {
	config := uploads.DefaultConfig()
	if batchSize > 0 {
		config.BatchSize = batchSize
	}
	if batchDelay > 0 {
		config.BatchDelay = batchDelay
	}
	return config
}

// CreateReportConfig builds the report configuration for the requested
// format and discovery ordering.
func CreateReportConfig(outputFormat, discoverySort string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(outputFormat)

	switch discoverySort {
	case "revenue":
		config.DiscoverySort = aggregator.SortByRevenue
	case "recency":
		config.DiscoverySort = aggregator.SortByRecency
	case "frequency":
		config.DiscoverySort = aggregator.SortByFrequency
	}

	return config
}
