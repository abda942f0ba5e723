package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/data/repos/testutil"
	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	errs "github.com/relaydesk/relaydesk-backend/internal/pkg/errors"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
}

// journal records the relative order of persistence and publish calls.
type journal struct {
	entries []string
}

func (j *journal) add(entry string) { j.entries = append(j.entries, entry) }

type fakeConversationRepo struct {
	convs   map[uuid.UUID]*chat.Conversation
	journal *journal
	saveErr error
	findTx  *gorm.DB
	saveTx  *gorm.DB
}

func newFakeConversationRepo(j *journal) *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[uuid.UUID]*chat.Conversation), journal: j}
}

func (f *fakeConversationRepo) Find(dbc dbctx.Context, id uuid.UUID) (*chat.Conversation, error) {
	f.findTx = dbc.Tx
	conv, ok := f.convs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return conv, nil
}

func (f *fakeConversationRepo) Create(_ dbctx.Context, c *chat.Conversation) error {
	f.convs[c.ID] = c
	return nil
}

func (f *fakeConversationRepo) Save(dbc dbctx.Context, c *chat.Conversation) error {
	f.saveTx = dbc.Tx
	if f.saveErr != nil {
		return f.saveErr
	}
	f.convs[c.ID] = c
	if f.journal != nil {
		f.journal.add("save")
	}
	return nil
}

type fakeMessageRepo struct {
	msgs        map[uuid.UUID]chat.Message
	softDeleted map[uuid.UUID]bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{msgs: make(map[uuid.UUID]chat.Message), softDeleted: make(map[uuid.UUID]bool)}
}

func (f *fakeMessageRepo) Find(_ dbctx.Context, id uuid.UUID) (*chat.Message, error) {
	msg, ok := f.msgs[id]
	if !ok || f.softDeleted[id] {
		return nil, errs.ErrNotFound
	}
	return &msg, nil
}

func (f *fakeMessageRepo) ListByConversation(_ dbctx.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error) {
	var out []chat.Message
	for id, msg := range f.msgs {
		if msg.ConversationID == conversationID && !f.softDeleted[id] {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) UpdateContent(_ dbctx.Context, id uuid.UUID, content string) error {
	msg, ok := f.msgs[id]
	if !ok || f.softDeleted[id] {
		return errs.ErrNotFound
	}
	msg.Content = content
	f.msgs[id] = msg
	return nil
}

func (f *fakeMessageRepo) SoftDelete(_ dbctx.Context, id uuid.UUID) error {
	if _, ok := f.msgs[id]; !ok || f.softDeleted[id] {
		return errs.ErrNotFound
	}
	f.softDeleted[id] = true
	return nil
}

func (f *fakeMessageRepo) HardDelete(_ dbctx.Context, id uuid.UUID) error {
	if _, ok := f.msgs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.msgs, id)
	delete(f.softDeleted, id)
	return nil
}

type recordingPublisher struct {
	journal *journal
	batches [][]chat.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events []chat.DomainEvent) {
	if p.journal != nil {
		p.journal.add("publish")
	}
	p.batches = append(p.batches, events)
}

func (p *recordingPublisher) all() []chat.DomainEvent {
	var out []chat.DomainEvent
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func seedActiveConversation(t *testing.T, repo *fakeConversationRepo) *chat.Conversation {
	t.Helper()
	conv := chat.Open(uuid.New(), uuid.New(), uuid.New(), fixedClock())
	repo.convs[conv.ID] = conv
	return conv
}

func TestSendPersistsBeforePublishing(t *testing.T) {
	j := &journal{}
	convs := newFakeConversationRepo(j)
	msgs := newFakeMessageRepo()
	pub := &recordingPublisher{journal: j}
	svc := NewMessageService(testutil.DB(t), convs, msgs, pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	msg, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		SenderType:     "customer",
		Content:        "  hello there  ",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello there" {
		t.Fatalf("content not trimmed: %q", msg.Content)
	}
	if msg.MessageType != chat.DefaultMessageType {
		t.Fatalf("message type not defaulted: %q", msg.MessageType)
	}

	if len(j.entries) != 2 || j.entries[0] != "save" || j.entries[1] != "publish" {
		t.Fatalf("want save before publish, got %v", j.entries)
	}
	evts := pub.all()
	if len(evts) != 1 {
		t.Fatalf("want 1 event, got %d", len(evts))
	}
	appended, ok := evts[0].(chat.MessageAppended)
	if !ok {
		t.Fatalf("want MessageAppended, got %T", evts[0])
	}
	if appended.Conversation != conv.ID || appended.MessageID != msg.ID {
		t.Fatalf("event ids mismatch: %+v", appended)
	}
}

func TestSendRunsLoadAndSaveInOneTransaction(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	svc := NewMessageService(testutil.DB(t), convs, newFakeMessageRepo(), &recordingPublisher{}, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	if _, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		SenderType:     "customer",
		Content:        "atomic",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if convs.findTx == nil || convs.saveTx == nil {
		t.Fatalf("repo calls must receive a transaction handle")
	}
	if convs.findTx != convs.saveTx {
		t.Fatalf("load and save must share one transaction")
	}
}

func TestUpdateStatusRunsInOneTransaction(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	svc := NewConversationService(testutil.DB(t), convs, &recordingPublisher{}, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	if _, err := svc.UpdateStatus(context.Background(), conv.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if convs.findTx == nil || convs.findTx != convs.saveTx {
		t.Fatalf("status transition must load and save in one transaction")
	}
}

func TestSendFailsWhenSaveFails(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	convs.saveErr = errors.New("storage down")
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), convs, newFakeMessageRepo(), pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	_, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		SenderType:     "customer",
		Content:        "never persisted",
	})
	if err == nil {
		t.Fatalf("save failure must fail the use case")
	}
	if len(pub.batches) != 0 {
		t.Fatalf("no event may be published for unpersisted state")
	}
}

func TestSendRejectsUnknownSenderType(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), convs, newFakeMessageRepo(), pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	_, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		SenderType:     "robot",
		Content:        "beep",
	})
	if !errors.Is(err, ErrInvalidSenderType) {
		t.Fatalf("want ErrInvalidSenderType, got %v", err)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("nothing should be published on rejection")
	}
}

func TestSendUnknownConversation(t *testing.T) {
	svc := NewMessageService(testutil.DB(t), newFakeConversationRepo(nil), newFakeMessageRepo(), &recordingPublisher{}, fixedClock, testLogger(t))

	_, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		SenderType:     "customer",
		Content:        "hello",
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSendRejectedWhenConversationClosed(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), convs, newFakeMessageRepo(), pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)
	if err := conv.Close(fixedClock()); err != nil {
		t.Fatalf("close: %v", err)
	}
	conv.TakeEvents()

	_, err := svc.Send(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		SenderType:     "agent",
		Content:        "too late",
	})
	if !chat.IsInvalidState(err) {
		t.Fatalf("want invalid state error, got %v", err)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("nothing should be published on rejection")
	}
}

func TestUpdateRejectsEmptyContentBeforeStorage(t *testing.T) {
	msgs := newFakeMessageRepo()
	svc := NewMessageService(testutil.DB(t), newFakeConversationRepo(nil), msgs, &recordingPublisher{}, fixedClock, testLogger(t))

	if _, err := svc.Update(context.Background(), uuid.New(), "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("want ErrEmptyContent, got %v", err)
	}
}

func TestUpdateEmitsMessageUpdated(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	msgs := newFakeMessageRepo()
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), convs, msgs, pub, fixedClock, testLogger(t))

	convID := uuid.New()
	msg, err := chat.NewMessage(convID, uuid.New(), chat.SenderAgent, "before", "text", fixedClock())
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	msgs.msgs[msg.ID] = msg

	updated, err := svc.Update(context.Background(), msg.ID, "after")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "after" {
		t.Fatalf("want updated content returned, got %q", updated.Content)
	}

	evts := pub.all()
	if len(evts) != 1 {
		t.Fatalf("want 1 event, got %d", len(evts))
	}
	ev, ok := evts[0].(chat.MessageUpdated)
	if !ok || ev.Conversation != convID || ev.MessageID != msg.ID {
		t.Fatalf("wrong event: %+v", evts[0])
	}
}

func TestDeleteEmitsSoftFlag(t *testing.T) {
	msgs := newFakeMessageRepo()
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), newFakeConversationRepo(nil), msgs, pub, fixedClock, testLogger(t))

	for _, soft := range []bool{true, false} {
		msg, err := chat.NewMessage(uuid.New(), uuid.New(), chat.SenderCustomer, "bye", "text", fixedClock())
		if err != nil {
			t.Fatalf("NewMessage: %v", err)
		}
		msgs.msgs[msg.ID] = msg

		if err := svc.Delete(context.Background(), msg.ID, soft); err != nil {
			t.Fatalf("delete soft=%v: %v", soft, err)
		}
		evts := pub.all()
		last, ok := evts[len(evts)-1].(chat.MessageDeleted)
		if !ok || last.Soft != soft || last.MessageID != msg.ID {
			t.Fatalf("wrong delete event for soft=%v: %+v", soft, evts[len(evts)-1])
		}
	}
}

func TestDeleteUnknownMessage(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewMessageService(testutil.DB(t), newFakeConversationRepo(nil), newFakeMessageRepo(), pub, fixedClock, testLogger(t))

	if err := svc.Delete(context.Background(), uuid.New(), true); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("nothing should be published for a missing message")
	}
}

func TestCreateConversationPublishesOpened(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	pub := &recordingPublisher{}
	svc := NewConversationService(testutil.DB(t), convs, pub, fixedClock, testLogger(t))

	conv, err := svc.Create(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.Status != chat.StatusActive {
		t.Fatalf("want active, got %s", conv.Status)
	}
	evts := pub.all()
	if len(evts) != 1 {
		t.Fatalf("want 1 event, got %d", len(evts))
	}
	if opened, ok := evts[0].(chat.ConversationOpened); !ok || opened.Conversation != conv.ID {
		t.Fatalf("wrong event: %+v", evts[0])
	}
}

func TestUpdateStatusCloseAndReopen(t *testing.T) {
	j := &journal{}
	convs := newFakeConversationRepo(j)
	pub := &recordingPublisher{journal: j}
	svc := NewConversationService(testutil.DB(t), convs, pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	status, err := svc.UpdateStatus(context.Background(), conv.ID, "closed")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if status != chat.StatusClosed {
		t.Fatalf("want closed, got %s", status)
	}
	if len(j.entries) < 2 || j.entries[0] != "save" || j.entries[1] != "publish" {
		t.Fatalf("want save before publish, got %v", j.entries)
	}

	status, err = svc.UpdateStatus(context.Background(), conv.ID, "active")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if status != chat.StatusActive {
		t.Fatalf("want active, got %s", status)
	}

	evts := pub.all()
	if len(evts) != 2 {
		t.Fatalf("want 2 events, got %d", len(evts))
	}
	if _, ok := evts[0].(chat.ConversationClosed); !ok {
		t.Fatalf("want ConversationClosed first, got %T", evts[0])
	}
	if _, ok := evts[1].(chat.ConversationReopened); !ok {
		t.Fatalf("want ConversationReopened second, got %T", evts[1])
	}
}

func TestUpdateStatusUnsupportedTarget(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	pub := &recordingPublisher{}
	svc := NewConversationService(testutil.DB(t), convs, pub, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	if _, err := svc.UpdateStatus(context.Background(), conv.ID, "archived"); !errors.Is(err, ErrUnsupportedStatus) {
		t.Fatalf("want ErrUnsupportedStatus, got %v", err)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("nothing should be published on rejection")
	}
}

func TestUpdateStatusRedundantTransition(t *testing.T) {
	convs := newFakeConversationRepo(nil)
	svc := NewConversationService(testutil.DB(t), convs, &recordingPublisher{}, fixedClock, testLogger(t))
	conv := seedActiveConversation(t, convs)

	if _, err := svc.UpdateStatus(context.Background(), conv.ID, "active"); !chat.IsInvalidState(err) {
		t.Fatalf("reopening an active conversation must fail, got %v", err)
	}
}
