// ABOUTME: Router tests covering the state machine end to end
// ABOUTME: Fake sender plus mock store; scenarios mirror real chat flows

package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/2389/club-relay/internal/dedupe"
	"github.com/2389/club-relay/internal/draft"
	"github.com/2389/club-relay/internal/registry"
	"github.com/2389/club-relay/internal/relay"
	"github.com/2389/club-relay/internal/store"
	"github.com/2389/club-relay/internal/telegram"
	"github.com/2389/club-relay/internal/threadmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminGroupID = int64(-100500)
	messageTopic = int64(7)
	appTopic     = int64(9)
	aliceID      = int64(100)
	adminActorID = int64(900)
)

type outbound struct {
	id      int64
	chatID  int64
	topicID int64
	replyTo int64
	text    string
	fileID  string
	kind    store.MediaKind
	markup  *telegram.InlineKeyboardMarkup
	isMedia bool
}

// fakeSender records every outbound call with sequential message ids.
type fakeSender struct {
	sent    []outbound
	acks    []string
	cleared []int64
	nextID  int64
}

func (f *fakeSender) SendMessage(_ context.Context, p telegram.SendMessageParams) (int64, error) {
	f.nextID++
	f.sent = append(f.sent, outbound{
		id: f.nextID, chatID: p.ChatID, topicID: p.MessageThreadID, replyTo: p.ReplyToMessageID,
		text: p.Text, markup: p.ReplyMarkup,
	})
	return f.nextID, nil
}

func (f *fakeSender) SendMedia(_ context.Context, p telegram.SendMediaParams) (int64, error) {
	f.nextID++
	f.sent = append(f.sent, outbound{
		id: f.nextID, chatID: p.ChatID, topicID: p.MessageThreadID, replyTo: p.ReplyToMessageID,
		text: p.Caption, fileID: p.FileID, kind: p.Kind, markup: p.ReplyMarkup, isMedia: true,
	})
	return f.nextID, nil
}

func (f *fakeSender) AnswerCallback(_ context.Context, _, text string) error {
	f.acks = append(f.acks, text)
	return nil
}

func (f *fakeSender) ClearReplyMarkup(_ context.Context, _, messageID int64) error {
	f.cleared = append(f.cleared, messageID)
	return nil
}

// to filters recorded sends by chat id.
func (f *fakeSender) to(chatID int64) []outbound {
	var out []outbound
	for _, s := range f.sent {
		if s.chatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSender) last() outbound { return f.sent[len(f.sent)-1] }

type fixture struct {
	router *Router
	sender *fakeSender
	ms     *store.MockStore
	guard  *dedupe.Cache
	nextID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ms := store.NewMockStore()
	sender := &fakeSender{}
	guard := dedupe.New(10*time.Minute, 1000)
	t.Cleanup(func() { _ = guard.Close() })

	threads := threadmap.New(ms, logger)
	rel := relay.New(sender, ms, threads, relay.GroupConfig{
		GroupID:            adminGroupID,
		MessageTopicID:     messageTopic,
		ApplicationTopicID: appTopic,
	}, logger)
	reg := registry.New(ms, rel, logger)
	drafts := draft.New(ms, 0, 0, logger)

	r := New(Options{
		Store:        ms,
		Guard:        guard,
		Drafts:       drafts,
		Registry:     reg,
		Relay:        rel,
		Threads:      threads,
		Sender:       sender,
		AdminGroupID: adminGroupID,
		Logger:       logger,
	})
	return &fixture{router: r, sender: sender, ms: ms, guard: guard}
}

func (f *fixture) updateID() int64 {
	f.nextID++
	return f.nextID
}

func (f *fixture) handle(t *testing.T, u *telegram.Update) {
	t.Helper()
	require.NoError(t, f.router.HandleUpdate(context.Background(), u))
}

func alice() *telegram.User {
	return &telegram.User{ID: aliceID, Username: "alice", FirstName: "Alice"}
}

func (f *fixture) privateText(text string) *telegram.Update {
	return &telegram.Update{UpdateID: f.updateID(), Message: &telegram.Message{
		MessageID: f.updateID(),
		Chat:      &telegram.Chat{ID: aliceID, Type: "private"},
		From:      alice(),
		Text:      text,
	}}
}

func (f *fixture) privateDocument(name string, size int64) *telegram.Update {
	return &telegram.Update{UpdateID: f.updateID(), Message: &telegram.Message{
		MessageID: f.updateID(),
		Chat:      &telegram.Chat{ID: aliceID, Type: "private"},
		From:      alice(),
		Document:  &telegram.Document{FileID: "file-" + name, FileName: name, FileSize: size},
	}}
}

func (f *fixture) userCallback(data string) *telegram.Update {
	return &telegram.Update{UpdateID: f.updateID(), CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: alice(),
		Data: data,
	}}
}

func (f *fixture) adminCallback(data string, onMessageID int64) *telegram.Update {
	return &telegram.Update{UpdateID: f.updateID(), CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: &telegram.User{ID: adminActorID, FirstName: "Admin"},
		Data: data,
		Message: &telegram.Message{
			MessageID: onMessageID,
			Chat:      &telegram.Chat{ID: adminGroupID, Type: "supergroup"},
		},
	}}
}

func (f *fixture) adminReply(replyTo int64, text string) *telegram.Update {
	return &telegram.Update{UpdateID: f.updateID(), Message: &telegram.Message{
		MessageID:       f.updateID(),
		Chat:            &telegram.Chat{ID: adminGroupID, Type: "supergroup"},
		From:            &telegram.User{ID: adminActorID, FirstName: "Admin"},
		ReplyTo:         &telegram.Message{MessageID: replyTo},
		MessageThreadID: messageTopic,
		Text:            text,
	}}
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	f.handle(t, f.privateText("/start"))
}

func TestRouter_Start(t *testing.T) {
	f := newFixture(t)

	f.register(t)

	user, err := f.ms.GetUser(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, user.State)

	msgs := f.sender.to(aliceID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Welcome")
	require.NotNil(t, msgs[0].markup)
}

func TestRouter_UnregisteredUserIsPromptedToStart(t *testing.T) {
	f := newFixture(t)

	f.handle(t, f.privateText("hello?"))

	msgs := f.sender.to(aliceID)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "/start")
}

func TestRouter_MessageAdminFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)

	f.handle(t, f.userCallback(telegram.CallbackMessageAdmin))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateAwaitingAdminMessage, user.State)

	f.handle(t, f.privateText("hello admins"))

	group := f.sender.to(adminGroupID)
	require.Len(t, group, 1)
	assert.Equal(t, messageTopic, group[0].topicID)
	assert.Contains(t, group[0].text, "hello admins")

	user, err = f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, user.State, "relaying returns the user to idle")

	last := f.sender.last()
	assert.Equal(t, aliceID, last.chatID)
	assert.Contains(t, last.text, "sent to the admins")
}

func TestRouter_AdminReplyRoutedToUser(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackMessageAdmin))
	f.handle(t, f.privateText("hello admins"))

	group := f.sender.to(adminGroupID)
	require.Len(t, group, 1)

	f.handle(t, f.adminReply(group[0].id, "hi Alice, welcome"))

	last := f.sender.last()
	assert.Equal(t, aliceID, last.chatID)
	assert.Contains(t, last.text, "Reply from admin")
	assert.Contains(t, last.text, "hi Alice, welcome")
}

func TestRouter_UntrackedAdminReplyIgnored(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	before := len(f.sender.sent)

	f.handle(t, f.adminReply(424242, "random chatter"))

	assert.Len(t, f.sender.sent, before, "no outbound message for an unmapped reply")
}

func TestRouter_ApplicationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)

	f.handle(t, f.userCallback(telegram.CallbackApply))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateCollectingApplication, user.State)

	f.handle(t, f.privateDocument("f1.pdf", 2<<20))
	f.handle(t, f.privateDocument("f2.pdf", 1<<20))

	appMsgsBefore := len(f.sender.to(adminGroupID))
	f.handle(t, f.userCallback(telegram.CallbackSubmit))

	// One summary post plus two file posts replying to it
	group := f.sender.to(adminGroupID)[appMsgsBefore:]
	require.Len(t, group, 3)
	summary := group[0]
	assert.Equal(t, appTopic, summary.topicID)
	assert.Contains(t, summary.text, "NEW APPLICATION")
	assert.Contains(t, summary.text, "Files submitted: 2")
	require.NotNil(t, summary.markup)
	for _, filePost := range group[1:] {
		assert.True(t, filePost.isMedia)
		assert.NotZero(t, filePost.replyTo)
	}

	user, err = f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.AppStatusPending, user.ApplicationStatus)
	assert.Equal(t, store.StateIdle, user.State)

	// Draft is discarded by submit
	d, err := f.ms.GetDraft(ctx, aliceID)
	if err == nil {
		assert.Empty(t, d.Files)
	} else {
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestRouter_SubmitEmptyDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))

	f.handle(t, f.userCallback(telegram.CallbackSubmit))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.AppStatusNone, user.ApplicationStatus, "empty submit changes nothing")

	last := f.sender.last()
	assert.Contains(t, last.text, "not added any files")
}

func TestRouter_OversizedFileRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))
	f.handle(t, f.privateDocument("ok.pdf", 1<<20))

	f.handle(t, f.privateDocument("huge.iso", 35<<20))

	last := f.sender.last()
	assert.Contains(t, last.text, "too large")
	assert.Contains(t, last.text, "30.00 MB", "rejection names the configured cap")

	d, err := f.ms.GetDraft(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, d.Files, 1, "rejected file must not touch the draft")
	assert.Equal(t, "ok.pdf", d.Files[0].FileName)
}

func TestRouter_NonFileWhileCollectingReprompts(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))

	f.handle(t, f.privateText("is this enough?"))

	last := f.sender.last()
	assert.Contains(t, last.text, "send a file")
}

func TestRouter_CancelRetainsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))
	f.handle(t, f.privateDocument("f1.pdf", 1<<20))

	f.handle(t, f.userCallback(telegram.CallbackCancel))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, user.State)

	// Resuming shows the retained draft and new files append after it
	f.handle(t, f.userCallback(telegram.CallbackApply))
	last := f.sender.last()
	assert.Contains(t, last.text, "1 file(s)")

	f.handle(t, f.privateDocument("f2.pdf", 1<<20))
	d, err := f.ms.GetDraft(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, d.Files, 2)
	assert.Equal(t, "f1.pdf", d.Files[0].FileName)
	assert.Equal(t, "f2.pdf", d.Files[1].FileName)
}

func TestRouter_ApplyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))
	f.handle(t, f.privateDocument("f1.pdf", 1<<20))
	f.handle(t, f.userCallback(telegram.CallbackSubmit))

	f.handle(t, f.userCallback(telegram.CallbackApply))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateIdle, user.State, "pending users stay idle")

	last := f.sender.last()
	assert.Contains(t, last.text, "already submitted")
}

func TestRouter_DuplicateUpdateDropped(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackMessageAdmin))

	u := f.privateText("hello admins")
	f.handle(t, u)
	groupCount := len(f.sender.to(adminGroupID))
	totalCount := len(f.sender.sent)

	// Redelivery of the identical update id must be a no-op
	f.handle(t, u)

	assert.Len(t, f.sender.to(adminGroupID), groupCount)
	assert.Len(t, f.sender.sent, totalCount)
}

func TestRouter_ConcurrentUploadsForOneUserSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))

	const uploads = 8
	updates := make([]*telegram.Update, uploads)
	wantIDs := make([]string, uploads)
	for i := range updates {
		name := fmt.Sprintf("doc-%02d.pdf", i)
		updates[i] = f.privateDocument(name, 1<<20)
		wantIDs[i] = "file-" + name
	}

	var wg sync.WaitGroup
	for _, u := range updates {
		wg.Add(1)
		go func(u *telegram.Update) {
			defer wg.Done()
			assert.NoError(t, f.router.HandleUpdate(ctx, u))
		}(u)
	}
	wg.Wait()

	// No upload may be lost to an interleaved draft read-modify-write
	d, err := f.ms.GetDraft(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, d.Files, uploads)

	gotIDs := make([]string, 0, uploads)
	for _, file := range d.Files {
		gotIDs = append(gotIDs, file.FileID)
	}
	assert.ElementsMatch(t, wantIDs, gotIDs)

	// Each confirmation carries a distinct running count, so the
	// appends really happened one at a time
	var counts, wantCounts []int
	for _, s := range f.sender.to(aliceID) {
		var n int
		var name string
		if _, err := fmt.Sscanf(s.text, "📎 File %d received: %s", &n, &name); err == nil {
			counts = append(counts, n)
		}
	}
	for i := 1; i <= uploads; i++ {
		wantCounts = append(wantCounts, i)
	}
	assert.ElementsMatch(t, wantCounts, counts)
}

func submittedApp(t *testing.T, f *fixture) (appID string, summaryID int64) {
	t.Helper()
	f.register(t)
	f.handle(t, f.userCallback(telegram.CallbackApply))
	f.handle(t, f.privateDocument("f1.pdf", 1<<20))
	f.handle(t, f.userCallback(telegram.CallbackSubmit))

	for _, s := range f.sender.to(adminGroupID) {
		if s.markup != nil {
			// app:approve:<id>
			appID = s.markup.InlineKeyboard[0][0].CallbackData[len("app:approve:"):]
			summaryID = s.id
		}
	}
	require.NotEmpty(t, appID)
	return appID, summaryID
}

func TestRouter_ApproveCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID, summaryID := submittedApp(t, f)

	f.handle(t, f.adminCallback("app:approve:"+appID, summaryID))

	app, err := f.ms.GetApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, store.ApplicationApproved, app.Status)

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.AppStatusApproved, user.ApplicationStatus)

	// User was notified and the summary keyboard retired
	last := f.sender.last()
	assert.Equal(t, aliceID, last.chatID)
	assert.Contains(t, last.text, "approved")
	assert.Equal(t, []int64{summaryID}, f.sender.cleared)
}

func TestRouter_SecondApproveRejected(t *testing.T) {
	f := newFixture(t)
	appID, summaryID := submittedApp(t, f)

	f.handle(t, f.adminCallback("app:approve:"+appID, summaryID))
	clearedOnce := len(f.sender.cleared)

	f.handle(t, f.adminCallback("app:approve:"+appID, summaryID))

	require.NotEmpty(t, f.sender.acks)
	assert.Contains(t, f.sender.acks[len(f.sender.acks)-1], "already been processed")
	assert.Len(t, f.sender.cleared, clearedOnce, "losing action must not touch the keyboard")
}

func TestRouter_TextVerdictApproves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID, summaryID := submittedApp(t, f)

	f.handle(t, f.adminReply(summaryID, "approve welcome to the club"))

	app, err := f.ms.GetApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, store.ApplicationApproved, app.Status)
	assert.Equal(t, "welcome to the club", app.AdminNote)

	// The admin actor gets an outcome notice in the group, and the
	// summary keyboard is retired like on a button verdict
	group := f.sender.to(adminGroupID)
	assert.Contains(t, group[len(group)-1].text, "approved")
	assert.Equal(t, []int64{summaryID}, f.sender.cleared)
}

func TestRouter_VerdictOnUnknownApplication(t *testing.T) {
	f := newFixture(t)

	f.handle(t, f.adminCallback("app:approve:no-such-app", 55))

	require.NotEmpty(t, f.sender.acks)
	assert.Contains(t, f.sender.acks[len(f.sender.acks)-1], "Unknown application")
	assert.Empty(t, f.sender.cleared)
}

func TestRouter_RequestMoreCallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID, summaryID := submittedApp(t, f)

	f.handle(t, f.adminCallback("app:request_more:"+appID, summaryID))
	f.handle(t, f.adminCallback("app:request_more:"+appID, summaryID))

	app, err := f.ms.GetApplication(ctx, appID)
	require.NoError(t, err)
	assert.Equal(t, store.ApplicationSubmitted, app.Status, "request_more never changes state")
	assert.Empty(t, f.sender.cleared, "keyboard stays for future verdicts")

	last := f.sender.last()
	assert.Equal(t, aliceID, last.chatID)
	assert.Contains(t, last.text, "additional files")
}

func TestRouter_RejectThenReapply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appID, summaryID := submittedApp(t, f)

	f.handle(t, f.adminCallback("app:reject:"+appID, summaryID))

	user, err := f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.AppStatusRejected, user.ApplicationStatus)

	// A rejected user may start over
	f.handle(t, f.userCallback(telegram.CallbackApply))
	user, err = f.ms.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, store.StateCollectingApplication, user.State)
}
