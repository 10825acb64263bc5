package models

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	LogLevel    string             `yaml:"log_level"`
	GrpcHost    string             `yaml:"grpc_host"`
	GrpcPort    int                `yaml:"grpc_port"`
	MetricsAddr string             `yaml:"metrics_addr"`
	Source      MStorageConfig     `yaml:"source"`
	Target      MStorageConfig     `yaml:"target"`
	Network     MNetworkConfig     `yaml:"network"`
	Aggregation MAggregationConfig `yaml:"aggregation"`
	Schedule    MScheduleConfig    `yaml:"schedule"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	SSLMode            string `yaml:"ssl_mode"`
}

type MNetworkConfig struct {
	APIURL          string `yaml:"api_url"`
	RequestTimeout  int    `yaml:"timeout"`
	BreakerFailures int    `yaml:"breaker_failures"`
	BreakerOpenSecs int    `yaml:"breaker_open_seconds"`
	UserAgent       string `yaml:"user_agent"`
}

type MAggregationConfig struct {
	Window  string   `yaml:"window"`
	StdMode string   `yaml:"std_mode"` // "sample" or "population"
	Signals []string `yaml:"signals"`
}

type MScheduleConfig struct {
	At string `yaml:"at"` // HH:MM, UTC
}
