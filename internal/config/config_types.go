package config

// FileConfig represents the configuration loaded from file
type FileConfig struct {
	Server struct {
		Addr           string  `yaml:"addr" json:"addr"`
		BasePath       string  `yaml:"base_path" json:"base_path"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps" json:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	} `yaml:"server" json:"server"`

	YouTube struct {
		APIKey   string `yaml:"api_key" json:"api_key"`
		Endpoint string `yaml:"endpoint" json:"endpoint"`
	} `yaml:"youtube" json:"youtube"`

	Gemini struct {
		APIKey             string   `yaml:"api_key" json:"api_key"`
		Endpoint           string   `yaml:"endpoint" json:"endpoint"`
		Model              string   `yaml:"model" json:"model"`
		FallbackModels     []string `yaml:"fallback_models" json:"fallback_models"`
		Temperature        *float64 `yaml:"temperature" json:"temperature"`
		MaxTranscriptChars int      `yaml:"max_transcript_chars" json:"max_transcript_chars"`
	} `yaml:"gemini" json:"gemini"`

	Proxy struct {
		Enabled         *bool  `yaml:"enabled" json:"enabled"`
		Mode            string `yaml:"mode" json:"mode"`
		Selection       string `yaml:"selection" json:"selection"`
		RefreshInterval string `yaml:"refresh_interval" json:"refresh_interval"`
		FreshnessWindow string `yaml:"freshness_window" json:"freshness_window"`
		SnapshotPath    string `yaml:"snapshot_path" json:"snapshot_path"`
		Webshare        struct {
			APIKey   string `yaml:"api_key" json:"api_key"`
			Endpoint string `yaml:"endpoint" json:"endpoint"`
		} `yaml:"webshare" json:"webshare"`
		Host          string `yaml:"host" json:"host"`
		Port          int    `yaml:"port" json:"port"`
		Username      string `yaml:"username" json:"username"`
		Password      string `yaml:"password" json:"password"`
		RotatingCount int    `yaml:"rotating_count" json:"rotating_count"`
		File          string `yaml:"file" json:"file"`
		WatchFile     bool   `yaml:"watch_file" json:"watch_file"`
	} `yaml:"proxy" json:"proxy"`

	Retry struct {
		MaxAttempts    int    `yaml:"max_attempts" json:"max_attempts"`
		Delay          string `yaml:"delay" json:"delay"`
		Backoff        string `yaml:"backoff" json:"backoff"`
		MaxDelay       string `yaml:"max_delay" json:"max_delay"`
		AttemptTimeout string `yaml:"attempt_timeout" json:"attempt_timeout"`
	} `yaml:"retry" json:"retry"`

	Cache struct {
		Enabled       *bool  `yaml:"enabled" json:"enabled"`
		Backend       string `yaml:"backend" json:"backend"`
		MongoURI      string `yaml:"mongodb_uri" json:"mongodb_uri"`
		MongoDatabase string `yaml:"mongodb_database" json:"mongodb_database"`
		RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
		RedisPassword string `yaml:"redis_password" json:"redis_password"`
		RedisDB       int    `yaml:"redis_db" json:"redis_db"`
		RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`
		PurgeAge      string `yaml:"purge_age" json:"purge_age"`
	} `yaml:"cache" json:"cache"`

	Transcript struct {
		Languages        []string `yaml:"languages" json:"languages"`
		StrictLanguages  bool     `yaml:"strict_languages" json:"strict_languages"`
		BatchConcurrency int      `yaml:"batch_concurrency" json:"batch_concurrency"`
		CatalogPath      string   `yaml:"catalog_path" json:"catalog_path"`
	} `yaml:"transcript" json:"transcript"`

	Debug             bool   `yaml:"debug" json:"debug"`
	LogFile           string `yaml:"log_file" json:"log_file"`
	ManagementKey     string `yaml:"management_key" json:"management_key"`
	ManagementKeyHash string `yaml:"management_key_hash" json:"management_key_hash"`
}
