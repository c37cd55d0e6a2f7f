package version

// Set at build time with -ldflags "-X github.com/mojo-fit/mojo-indexer/internal/version.Version=..."
var (
	Version = "unset"
	Commit  = "unset"
)

func GetVersion() string {
	return Version
}

func GetCommit() string {
	return Commit
}
