package telegram

import (
	"context"
	"sync"
	"time"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/mocks"
	"giveaway_bot/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeMessenger struct {
	mu sync.Mutex

	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  map[int64]error
	editErr  error

	member      tgbotapi.ChatMember
	memberErrs  []error
	memberCalls int

	chat    tgbotapi.Chat
	chatErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sendErr: map[int64]error{},
		member:  tgbotapi.ChatMember{Status: "member"},
	}
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		if err := f.sendErr[msg.ChatID]; err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeMessenger) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && f.editErr != nil {
		return nil, f.editErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeMessenger) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if len(f.memberErrs) > 0 {
		err := f.memberErrs[0]
		f.memberErrs = f.memberErrs[1:]
		if err != nil {
			return tgbotapi.ChatMember{}, err
		}
	}
	return f.member, nil
}

func (f *fakeMessenger) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return f.chat, f.chatErr
}

// texts returns the text messages sent to chatID in order.
func (f *fakeMessenger) texts(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeMessenger) lastMessage(chatID int64) (tgbotapi.MessageConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok && msg.ChatID == chatID {
			return msg, true
		}
	}
	return tgbotapi.MessageConfig{}, false
}

func (f *fakeMessenger) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeMessenger) countRequests(match func(tgbotapi.Chattable) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.requests {
		if match(c) {
			n++
		}
	}
	return n
}

type recorderStub struct {
	mu          sync.Mutex
	updates     []string
	outcomes    []string
	starts      int
	confirmed   int
	promotions  int
	contacts    int
	delivered   int
	failed      int
	latencySeen bool
}

func (r *recorderStub) RecordUpdate(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, kind)
}

func (r *recorderStub) RecordStart(created, referralApplied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *recorderStub) RecordSubscriptionCheck(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recorderStub) RecordMembershipLatency(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencySeen = true
}

func (r *recorderStub) RecordConfirmation(referralConfirmed bool, promotions int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if referralConfirmed {
		r.confirmed++
	}
	r.promotions += promotions
}

func (r *recorderStub) RecordContactSaved() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts++
}

func (r *recorderStub) RecordBroadcast(delivered, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered += delivered
	r.failed += failed
}

type publisherStub struct {
	mu    sync.Mutex
	types []string
}

func (p *publisherStub) Publish(msg events.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, msg.Type)
}

type sheetsStub struct {
	mu    sync.Mutex
	users []int64
}

func (s *sheetsStub) Enqueue(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user.TelegramID)
	return nil
}

type testBot struct {
	*Bot
	api           *fakeMessenger
	referrals     *mocks.MockReferralService
	subscriptions *mocks.MockSubscriptionService
	contacts      *mocks.MockContactService
	admin         *mocks.MockAdminService
	metrics       *recorderStub
	events        *publisherStub
	sheets        *sheetsStub
}

const (
	testChannelID  = int64(-1001234567890)
	testChannelURL = "https://t.me/giveaway_channel"
	testAdminID    = int64(999)
)

func newTestClient(api Messenger) *Client {
	c := NewClient(api)
	c.policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func newTestBot() *testBot {
	tb := &testBot{
		api:           newFakeMessenger(),
		referrals:     &mocks.MockReferralService{},
		subscriptions: &mocks.MockSubscriptionService{},
		contacts:      &mocks.MockContactService{},
		admin:         &mocks.MockAdminService{},
		metrics:       &recorderStub{},
		events:        &publisherStub{},
		sheets:        &sheetsStub{},
	}

	tb.Bot = NewBot(newTestClient(tb.api), Deps{
		Referrals:     tb.referrals,
		Subscriptions: tb.subscriptions,
		Contacts:      tb.contacts,
		Admin:         tb.admin,
		Metrics:       tb.metrics,
		Events:        tb.events,
		Sheets:        tb.sheets,
	}, Config{
		ChannelID:   testChannelID,
		ChannelURL:  testChannelURL,
		BotUsername: "giveaway_bot",
		AdminIDs:    []int64{testAdminID},
	})

	return tb
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, FirstName: "Ivan", UserName: "ivan"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func textMessage(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: from, FirstName: "Ivan"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}
}

func checkCallback(from int64) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: from, FirstName: "Ivan", UserName: "ivan"},
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: from},
		},
		Data: CallbackCheckSubscription,
	}
}
