package file

// Default file names, matching what existing deployments already have on disk
const (
	DefaultRecordsFile = "whitelist.json"
	DefaultMembersFile = "whitelist.txt"
)

// Config holds file storage settings
type Config struct {
	// Dir is the directory holding both files
	Dir string

	RecordsFile string
	MembersFile string
}

// DefaultConfig returns a Config rooted at dir with the standard file names
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		RecordsFile: DefaultRecordsFile,
		MembersFile: DefaultMembersFile,
	}
}
