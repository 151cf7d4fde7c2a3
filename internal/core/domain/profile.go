package domain

// LocalProfile is the local registry's mirror of a profile and its link, if
// any, to a cloud library submission. CloudLibraryID is nil when the profile
// has never been published or its publication was cancelled.
type LocalProfile struct {
	ID              int
	Title           string
	Namespace       string
	Version         string
	AuthorID        int
	CloudLibraryID  *string
	PendingApproval *bool
}

// User is a local registry account, looked up when notifying authors.
type User struct {
	ID          int
	DisplayName string
	Email       string
}
