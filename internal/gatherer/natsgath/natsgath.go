package natsgath

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/amqp-grader/api"
)

const (
	HeaderRunUuid  = "Grader-Run-Uuid"
	HeaderMsgType  = "Grader-Msg-Type"
	HeaderEncoding = "Content-Encoding"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

type natsGatherer struct {
	pub     Publisher
	subject string
	enc     *zstd.Encoder

	mu      sync.Mutex
	runUuid string
}

// New creates a NATS gatherer that streams zstd compressed JSON messages
// to the given subject.
func New(pub Publisher, subject string) (*natsGatherer, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &natsGatherer{pub: pub, subject: subject, enc: enc}, nil
}

func (s *natsGatherer) StartGrading(runUuid string, exercise string) {
	s.mu.Lock()
	s.runUuid = runUuid
	s.mu.Unlock()
	s.send(api.StartGradingMsg, api.NewStartGrading(runUuid, exercise))
}

func (s *natsGatherer) FinishPart(part api.PartResult) {
	s.send(api.FinishPartMsg, api.NewFinishPart(s.run(), part))
}

func (s *natsGatherer) FinishGrading(grade float64, maxGrade float64) {
	s.send(api.FinishGradingMsg, api.NewFinishGrading(s.run(), grade, maxGrade, nil))
}

func (s *natsGatherer) InternalError(msg string) {
	s.send(api.FinishGradingMsg, api.NewFinishGrading(s.run(), 0, 0, &msg))
}

func (s *natsGatherer) run() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runUuid
}

func (s *natsGatherer) send(msgType api.MsgType, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "err", err)
		return
	}

	m := nats.NewMsg(s.subject)
	m.Header.Set(HeaderRunUuid, s.run())
	m.Header.Set(HeaderMsgType, string(msgType))
	m.Header.Set(HeaderEncoding, "zstd")
	m.Data = s.enc.EncodeAll(b, nil)

	if err := s.pub.PublishMsg(m); err != nil {
		slog.Warn("failed to publish message to NATS", "subject", s.subject, "err", err)
	}
}
