package types

import "time"

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"3000"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"public"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"60"`
	MaxUploadMB     int64  `envconfig:"MAX_UPLOAD_MB" default:"5"`

	// Bearer tokens
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"24h"`
	BcryptCost   int           `envconfig:"BCRYPT_COST" default:"10"`

	// Object storage. "supabase" talks to the Storage REST API,
	// "s3" to any S3 compatible endpoint (Supabase exposes one too).
	StorageDriver      string `envconfig:"STORAGE_DRIVER" default:"supabase"`
	SupabaseProjectID  string `envconfig:"SUPABASE_PROJECT_ID"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_KEY"`
	S3Endpoint         string `envconfig:"S3_ENDPOINT"`
	S3Region           string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKeyID      string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey  string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3PublicBaseURL    string `envconfig:"S3_PUBLIC_BASE_URL"`
	VerificationBucket string `envconfig:"VERIFICATION_BUCKET" default:"verification"`
	MarketplaceBucket  string `envconfig:"MARKETPLACE_BUCKET" default:"marketplace"`

	// Marketplace image classifier
	ClassifierURL        string `envconfig:"CLASSIFIER_URL" default:"http://virtualtech.icu:3000/predict"`
	ClassifierTimeoutSec uint   `envconfig:"CLASSIFIER_TIMEOUT_SEC" default:"30"`
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
