package interfaces

import "context"

// FolderInfo is one entry returned by a mailbox listing.
type FolderInfo struct {
	Name       string
	Delimiter  string
	Attributes []string
}

// MailClient is a live, authenticated IMAP session. Implementations are not
// safe for concurrent use; the synchronizer drives one client at a time.
type MailClient interface {
	// ListFolders enumerates all selectable folders on the server.
	ListFolders(ctx context.Context) ([]FolderInfo, error)

	// Select opens a folder read-only and returns the number of messages in it.
	Select(ctx context.Context, folder string) (uint32, error)

	// SearchAllUIDs returns every UID in the currently selected folder.
	SearchAllUIDs(ctx context.Context) ([]uint32, error)

	// FetchRaw retrieves the full raw RFC 5322 message for a UID in the
	// currently selected folder without setting the \Seen flag.
	FetchRaw(ctx context.Context, uid uint32) ([]byte, error)

	// Logout terminates the session.
	Logout() error
}

// MailClientFactory opens a fresh session per sync cycle.
type MailClientFactory interface {
	Connect(ctx context.Context) (MailClient, error)
}
