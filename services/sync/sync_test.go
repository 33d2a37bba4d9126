package sync

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prismateams/mailroom/interfaces"
	"github.com/prismateams/mailroom/internal/logger"
	"github.com/prismateams/mailroom/internal/models"
	"github.com/prismateams/mailroom/internal/utils"
	"github.com/prismateams/mailroom/services/attachments"
)

// in-memory repositories

type fakeFolderRepo struct {
	folders map[string]*models.Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (f *fakeFolderRepo) GetAll(ctx context.Context) ([]models.Folder, error) {
	var out []models.Folder
	for _, folder := range f.folders {
		out = append(out, *folder)
	}
	return out, nil
}

func (f *fakeFolderRepo) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	if folder, ok := f.folders[name]; ok {
		copied := *folder
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = fmt.Sprintf("folder_%d", len(f.folders)+1)
	}
	f.folders[folder.Name] = folder
	return nil
}

func (f *fakeFolderRepo) Update(ctx context.Context, folder *models.Folder) error {
	f.folders[folder.Name] = folder
	return nil
}

func (f *fakeFolderRepo) DeleteByNames(ctx context.Context, names []string) (int64, error) {
	var removed int64
	for _, name := range names {
		if _, ok := f.folders[name]; ok {
			delete(f.folders, name)
			removed++
		}
	}
	return removed, nil
}

type fakeEmailRepo struct {
	emails    map[string]*models.Email
	nextID    int
	createErr error
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{emails: make(map[string]*models.Email)}
}

func (f *fakeEmailRepo) GetByID(ctx context.Context, id string) (*models.Email, error) {
	if email, ok := f.emails[id]; ok {
		copied := *email
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeEmailRepo) GetByFolderAndUID(ctx context.Context, folder string, uid uint32) (*models.Email, error) {
	for _, email := range f.emails {
		if email.Folder == folder && email.ImapUID != nil && *email.ImapUID == uid {
			copied := *email
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailRepo) GetByMessageIDInOtherFolder(ctx context.Context, messageID, excludeFolder string) (*models.Email, error) {
	for _, email := range f.emails {
		if email.MessageID == messageID && email.Folder != excludeFolder {
			copied := *email
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailRepo) GetAllByFolder(ctx context.Context, folder string) ([]models.Email, error) {
	var out []models.Email
	for _, email := range f.emails {
		if email.Folder == folder {
			out = append(out, *email)
		}
	}
	return out, nil
}

func (f *fakeEmailRepo) CountByFolder(ctx context.Context, folder string) (int64, error) {
	var count int64
	for _, email := range f.emails {
		if email.Folder == folder {
			count++
		}
	}
	return count, nil
}

func (f *fakeEmailRepo) ListByFolder(ctx context.Context, folder string, limit, offset int) ([]models.Email, error) {
	return f.GetAllByFolder(ctx, folder)
}

func (f *fakeEmailRepo) Create(ctx context.Context, email *models.Email) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.emails {
		// NULL uids never collide, matching the Postgres unique index.
		if existing.Folder == email.Folder &&
			existing.ImapUID != nil && email.ImapUID != nil &&
			*existing.ImapUID == *email.ImapUID {
			return gorm.ErrDuplicatedKey
		}
	}
	if email.ID == "" {
		f.nextID++
		email.ID = fmt.Sprintf("email_%d", f.nextID)
	}
	copied := *email
	f.emails[email.ID] = &copied
	return nil
}

func (f *fakeEmailRepo) Update(ctx context.Context, email *models.Email) error {
	copied := *email
	f.emails[email.ID] = &copied
	return nil
}

func (f *fakeEmailRepo) Delete(ctx context.Context, id string) error {
	delete(f.emails, id)
	return nil
}

func (f *fakeEmailRepo) MarkSynced(ctx context.Context, id string) error {
	if email, ok := f.emails[id]; ok {
		email.DeletedOnServer = false
		email.LastSyncedAt = utils.NowPtr()
	}
	return nil
}

func (f *fakeEmailRepo) byFolder(folder string) []*models.Email {
	var out []*models.Email
	for _, email := range f.emails {
		if email.Folder == folder {
			out = append(out, email)
		}
	}
	return out
}

type fakeAttachmentRepo struct {
	attachments []*models.EmailAttachment
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, attachment *models.EmailAttachment) error {
	if attachment.ID == "" {
		attachment.ID = fmt.Sprintf("file_%d", len(f.attachments)+1)
	}
	f.attachments = append(f.attachments, attachment)
	return nil
}

func (f *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*models.EmailAttachment, error) {
	for _, attachment := range f.attachments {
		if attachment.ID == id {
			return attachment, nil
		}
	}
	return nil, nil
}

func (f *fakeAttachmentRepo) GetByEmailID(ctx context.Context, emailID string) ([]models.EmailAttachment, error) {
	var out []models.EmailAttachment
	for _, attachment := range f.attachments {
		if attachment.EmailID == emailID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

// fake mailbox server

type fakeMailClient struct {
	folders   []interfaces.FolderInfo
	mailboxes map[string]map[uint32][]byte
	selected  string
	loggedOut bool
}

func newFakeMailClient() *fakeMailClient {
	return &fakeMailClient{mailboxes: make(map[string]map[uint32][]byte)}
}

func (f *fakeMailClient) addFolder(name string) {
	f.folders = append(f.folders, interfaces.FolderInfo{Name: name, Delimiter: "/"})
	if _, ok := f.mailboxes[name]; !ok {
		f.mailboxes[name] = make(map[uint32][]byte)
	}
}

func (f *fakeMailClient) addMessage(folder string, uid uint32, raw []byte) {
	f.mailboxes[folder][uid] = raw
}

func (f *fakeMailClient) ListFolders(ctx context.Context) ([]interfaces.FolderInfo, error) {
	return f.folders, nil
}

func (f *fakeMailClient) Select(ctx context.Context, folder string) (uint32, error) {
	mailbox, ok := f.mailboxes[folder]
	if !ok {
		return 0, fmt.Errorf("no such folder: %s", folder)
	}
	f.selected = folder
	return uint32(len(mailbox)), nil
}

func (f *fakeMailClient) SearchAllUIDs(ctx context.Context) ([]uint32, error) {
	var uids []uint32
	for uid := range f.mailboxes[f.selected] {
		uids = append(uids, uid)
	}
	return uids, nil
}

func (f *fakeMailClient) FetchRaw(ctx context.Context, uid uint32) ([]byte, error) {
	raw, ok := f.mailboxes[f.selected][uid]
	if !ok {
		return nil, fmt.Errorf("no such uid: %d", uid)
	}
	return raw, nil
}

func (f *fakeMailClient) Logout() error {
	f.loggedOut = true
	return nil
}

type fakeFactory struct {
	client *fakeMailClient
}

func (f *fakeFactory) Connect(ctx context.Context) (interfaces.MailClient, error) {
	return f.client, nil
}

type memStorage struct {
	blobs map[string][]byte
}

func (m *memStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[key] = data
	return key, nil
}

func (m *memStorage) Get(ctx context.Context, path string) ([]byte, error) {
	return m.blobs[path], nil
}

// helpers

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func uidPtr(uid uint32) *uint32 {
	return &uid
}

func rawMessage(messageID, subject, from, to, body string) []byte {
	var b strings.Builder
	if messageID != "" {
		b.WriteString("Message-Id: <" + messageID + ">\r\n")
	}
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: Mon, 02 Jun 2025 10:00:00 +0000\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

type fixture struct {
	service     *Service
	client      *fakeMailClient
	folders     *fakeFolderRepo
	emails      *fakeEmailRepo
	attachments *fakeAttachmentRepo
	resets      int
}

func newFixture() *fixture {
	fx := &fixture{
		client:      newFakeMailClient(),
		folders:     newFakeFolderRepo(),
		emails:      newFakeEmailRepo(),
		attachments: &fakeAttachmentRepo{},
	}
	fx.service = NewService(
		getLogger(),
		&fakeFactory{client: fx.client},
		fx.folders,
		fx.emails,
		fx.attachments,
		attachments.NewMaterializer(&memStorage{}),
		nil,
		func() { fx.resets++ },
	)
	return fx
}

// tests

func TestSyncAll_NewMessagesAndSynthesizedID(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 1, rawMessage("m1@example.com", "first", "a@example.com", "me@example.com", "hello"))
	fx.client.addMessage("INBOX", 2, rawMessage("m2@example.com", "second", "b@example.com", "me@example.com", "hi"))
	fx.client.addMessage("INBOX", 3, rawMessage("", "no id", "c@example.com", "me@example.com", "anonymous"))

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.NewMessages)
	assert.Equal(t, 0, stats.UpdatedMessages)
	assert.Equal(t, 0, stats.Errors)
	assert.Len(t, fx.emails.emails, 3)

	noID, err := fx.emails.GetByFolderAndUID(context.Background(), "INBOX", 3)
	require.NoError(t, err)
	require.NotNil(t, noID)
	assert.Contains(t, noID.MessageID, "INBOX")
	assert.Contains(t, noID.MessageID, "_3_")
	assert.True(t, fx.client.loggedOut)
}

func TestSyncAll_Idempotent(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 1, rawMessage("m1@example.com", "first", "a@example.com", "me@example.com", "hello"))
	fx.client.addMessage("INBOX", 2, rawMessage("m2@example.com", "second", "b@example.com", "me@example.com", "hi"))

	_, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.NewMessages)
	assert.Equal(t, 2, stats.UpdatedMessages)
	assert.Len(t, fx.emails.emails, 2)
}

func TestSyncAll_TombstoneTwoPhaseDelete(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 7, rawMessage("gone@example.com", "doomed", "a@example.com", "me@example.com", "bye"))

	_, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, fx.emails.emails, 1)

	// Message disappears from the server.
	delete(fx.client.mailboxes["INBOX"], 7)

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TombstonedRows)
	require.Len(t, fx.emails.emails, 1)
	for _, email := range fx.emails.emails {
		assert.True(t, email.DeletedOnServer)
	}

	// Still absent on the next pass: purged.
	stats, err = fx.service.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PurgedRows)
	assert.Len(t, fx.emails.emails, 0)
}

func TestSyncAll_TombstoneClearedOnReappearance(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	raw := rawMessage("back@example.com", "returning", "a@example.com", "me@example.com", "hello again")
	fx.client.addMessage("INBOX", 9, raw)

	_, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	delete(fx.client.mailboxes["INBOX"], 9)
	_, err = fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	// Reappears before the purge pass.
	fx.client.addMessage("INBOX", 9, raw)
	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.PurgedRows)
	assert.Equal(t, 1, stats.UpdatedMessages)
	require.Len(t, fx.emails.emails, 1)
	for _, email := range fx.emails.emails {
		assert.False(t, email.DeletedOnServer)
	}
}

func TestSyncAll_MoveDetection(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addFolder("Archive")

	// The message used to live in INBOX and was archived server-side. Both
	// local rows exist from earlier syncs; the INBOX uid is gone from the
	// server listing.
	fx.emails.emails["email_a"] = &models.Email{
		ID: "email_a", MessageID: "moved@example.com", Folder: "INBOX", ImapUID: uidPtr(4),
	}
	fx.emails.emails["email_b"] = &models.Email{
		ID: "email_b", MessageID: "moved@example.com", Folder: "Archive", ImapUID: uidPtr(12),
	}
	fx.client.addMessage("Archive", 12, rawMessage("moved@example.com", "archived", "a@example.com", "me@example.com", "kept"))

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.MovedMessages)
	assert.Empty(t, fx.emails.byFolder("INBOX"))
	require.Len(t, fx.emails.byFolder("Archive"), 1)
	assert.False(t, fx.emails.byFolder("Archive")[0].DeletedOnServer)
}

func TestSyncAll_DuplicateInsertCountsAsSkip(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 1, rawMessage("dup@example.com", "race", "a@example.com", "me@example.com", "hello"))

	fx.emails.createErr = gorm.ErrDuplicatedKey

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkippedMessages)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 0, stats.NewMessages)
}

func TestSyncAll_ConnectionLostResetsSessionAndAbandonsItem(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 1, rawMessage("lost@example.com", "unlucky", "a@example.com", "me@example.com", "hello"))

	fx.emails.createErr = driver.ErrBadConn

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 0, stats.NewMessages)
	assert.Equal(t, 1, fx.resets)
	assert.Empty(t, fx.emails.emails)
}

func TestSyncAll_AttachmentsMaterialized(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")

	var b strings.Builder
	b.WriteString("Message-Id: <att@example.com>\r\n")
	b.WriteString("From: a@example.com\r\n")
	b.WriteString("To: me@example.com\r\n")
	b.WriteString("Subject: with attachment\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/mixed; boundary=xyz\r\n\r\n")
	b.WriteString("--xyz\r\nContent-Type: text/plain\r\n\r\nsee attached\r\n")
	b.WriteString("--xyz\r\nContent-Type: application/pdf\r\nContent-Disposition: attachment; filename=\"report.pdf\"\r\n\r\n%PDF-1.4 fake\r\n")
	b.WriteString("--xyz--\r\n")
	fx.client.addMessage("INBOX", 5, []byte(b.String()))

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NewMessages)
	require.Len(t, fx.attachments.attachments, 1)
	attachment := fx.attachments.attachments[0]
	assert.Equal(t, "report.pdf", attachment.Filename)
	assert.False(t, attachment.IsLargeFile)
	assert.NotEmpty(t, attachment.Content)

	email, err := fx.emails.GetByFolderAndUID(context.Background(), "INBOX", 5)
	require.NoError(t, err)
	assert.True(t, email.HasAttachment)
}

func TestSyncFolders_CreatesAndFlagsSystemFolders(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addFolder("Archive")
	fx.client.addFolder("Projects/2025")
	fx.client.folders = append(fx.client.folders, interfaces.FolderInfo{Name: "  "})
	fx.client.folders = append(fx.client.folders, interfaces.FolderInfo{Name: "All", Attributes: []string{"\\Noselect"}})

	_, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, fx.folders.folders, 3)
	assert.True(t, fx.folders.folders["INBOX"].IsSystemFolder)
	assert.False(t, fx.folders.folders["Projects/2025"].IsSystemFolder)
	assert.Equal(t, "2025", fx.folders.folders["Projects/2025"].DisplayName)
}

func TestFetchWindow_Bounds(t *testing.T) {
	var uids []uint32
	// Shuffled-ish insertion: descending order exercises the sort.
	for i := 300; i >= 1; i-- {
		uids = append(uids, uint32(i))
	}

	custom := fetchWindow("Projects", uids)
	assert.Len(t, custom, 200)
	assert.Equal(t, uint32(101), custom[0])
	assert.Equal(t, uint32(300), custom[len(custom)-1])

	system := fetchWindow("INBOX", uids)
	assert.Len(t, system, 50)
	assert.Equal(t, uint32(251), system[0])
	assert.Equal(t, uint32(300), system[len(system)-1])
}

func TestSyncAll_OutboundRowsSurviveReconciliation(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addFolder("Sent")

	// Row written by the send flow: no server uid, invisible to the server.
	fx.emails.emails["email_out"] = &models.Email{
		ID: "email_out", MessageID: "out@example.com", Folder: "Sent", Outbound: true,
	}

	_, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)
	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TombstonedRows)
	assert.Equal(t, 0, stats.PurgedRows)
	row, err := fx.emails.GetByID(context.Background(), "email_out")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.False(t, row.DeletedOnServer)
}

func TestSyncFolders_PrunesUnreportedEmptyFolders(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")

	fx.folders.folders["Stale"] = &models.Folder{ID: "folder_stale", Name: "Stale"}
	fx.folders.folders["Keep"] = &models.Folder{ID: "folder_keep", Name: "Keep"}
	fx.emails.emails["email_k"] = &models.Email{
		ID: "email_k", MessageID: "k@example.com", Folder: "Keep", ImapUID: uidPtr(3),
	}

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, stats.FoldersRemoved, 1)
	assert.NotContains(t, fx.folders.folders, "Stale")
	assert.Contains(t, fx.folders.folders, "Keep")
}

func TestSyncAll_VisitsFoldersMissingFromListing(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")

	// Known locally, no longer reported by the server, still holding a row.
	fx.folders.folders["Old"] = &models.Folder{ID: "folder_old", Name: "Old"}
	fx.emails.emails["email_o"] = &models.Email{
		ID: "email_o", MessageID: "o@example.com", Folder: "Old", ImapUID: uidPtr(8),
	}

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	// The folder is kept and visited; the failed select is contained.
	assert.Contains(t, fx.folders.folders, "Old")
	assert.GreaterOrEqual(t, stats.Errors, 1)
	row, err := fx.emails.GetByID(context.Background(), "email_o")
	require.NoError(t, err)
	require.NotNil(t, row)
}

func TestSyncMessages_SelectFailureIsContained(t *testing.T) {
	fx := newFixture()
	fx.client.addFolder("INBOX")
	fx.client.addMessage("INBOX", 1, rawMessage("ok@example.com", "fine", "a@example.com", "me@example.com", "hello"))
	// Listed but not selectable.
	fx.client.folders = append(fx.client.folders, interfaces.FolderInfo{Name: "Broken"})

	stats, err := fx.service.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NewMessages)
	assert.GreaterOrEqual(t, stats.Errors, 1)
}
