package config

import "flag"

func parseFlags(values *Config) {
	flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
	flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
	flag.StringVar(&values.DBFileName, "f", values.DBFileName, "JSON file name with database")
	flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "A string with the database connection details")
	flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with the goose migrations")
	flag.StringVar(&values.TokenSigningSecretKey, "s", values.TokenSigningSecretKey, "base64 encoded secret key for bearer token signing")
	flag.DurationVar(&values.TokenTTL, "e", values.TokenTTL, "lifetime of an issued bearer token")
	flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet trusted to read internal stats")
	flag.StringVar(&values.ImagesDir, "i", values.ImagesDir, "directory with static product images")
	flag.Parse()
}
