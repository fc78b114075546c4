// constants.go
package github

const (
	// DefaultAPIURL is the GitHub REST API endpoint
	DefaultAPIURL = "https://api.github.com"

	// APIVersion pins the REST API version sent with every request
	APIVersion = "2022-11-28"

	// MediaType is the Accept header GitHub recommends
	MediaType = "application/vnd.github+json"

	// PerPage is the page size used for list endpoints
	PerPage = 100

	// DefaultRate is the client-side request budget per second
	DefaultRate = 10

	// DefaultBurst is the number of requests allowed at once
	DefaultBurst = 20

	// EmptyTreeSHA is git's well-known hash of a tree with no entries
	EmptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
)
