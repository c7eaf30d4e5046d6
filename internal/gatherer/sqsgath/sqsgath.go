package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/programme-lv/amqp-grader/api"
)

const sendTimeout = 30 * time.Second

// Sender is satisfied by *sqs.Client.
type Sender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsResQueueGatherer struct {
	sqsClient Sender
	queueUrl  string

	mu      sync.Mutex
	runUuid string
}

func New(client Sender, queueUrl string) *sqsResQueueGatherer {
	return &sqsResQueueGatherer{
		sqsClient: client,
		queueUrl:  queueUrl,
	}
}

// NewFromDefaultConfig uses the default AWS credential chain. The region
// comes from the environment, else from the queue url.
func NewFromDefaultConfig(ctx context.Context, queueUrl string) (*sqsResQueueGatherer, error) {
	var opts []func(*config.LoadOptions) error
	if os.Getenv("AWS_REGION") == "" {
		if region := RegionFromQueueURL(queueUrl); region != "" {
			opts = append(opts, config.WithRegion(region))
		}
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return New(sqs.NewFromConfig(cfg), queueUrl), nil
}

// RegionFromQueueURL extracts the region of https://sqs.<region>.amazonaws.com/...
func RegionFromQueueURL(queueUrl string) string {
	host, _, _ := strings.Cut(strings.TrimPrefix(queueUrl, "https://"), "/")
	parts := strings.Split(host, ".")
	if len(parts) >= 4 && parts[0] == "sqs" {
		return parts[1]
	}
	return ""
}

func (s *sqsResQueueGatherer) StartGrading(runUuid string, exercise string) {
	s.mu.Lock()
	s.runUuid = runUuid
	s.mu.Unlock()
	s.send(api.StartGradingMsg, api.NewStartGrading(runUuid, exercise))
}

func (s *sqsResQueueGatherer) FinishPart(part api.PartResult) {
	s.send(api.FinishPartMsg, api.NewFinishPart(s.run(), part))
}

func (s *sqsResQueueGatherer) FinishGrading(grade float64, maxGrade float64) {
	s.send(api.FinishGradingMsg, api.NewFinishGrading(s.run(), grade, maxGrade, nil))
}

func (s *sqsResQueueGatherer) InternalError(msg string) {
	s.send(api.FinishGradingMsg, api.NewFinishGrading(s.run(), 0, 0, &msg))
}

func (s *sqsResQueueGatherer) run() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runUuid
}

func (s *sqsResQueueGatherer) send(msgType api.MsgType, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err = s.sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueUrl),
		MessageBody: aws.String(string(b)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"msg_type": {DataType: aws.String("String"), StringValue: aws.String(string(msgType))},
		},
	})
	if err != nil {
		slog.Warn("failed to send message to SQS", "queue", s.queueUrl, "err", err)
	}
}
