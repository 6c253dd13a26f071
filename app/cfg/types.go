package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	OutputDir string

	// Application configuration
	SourcesDir        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Scraping
	UserAgent         string
	RequestsPerSecond float64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
