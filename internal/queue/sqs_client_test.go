package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	input *sqs.SendMessageInput
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSClientSendStampsVersion(t *testing.T) {
	fake := &fakeSender{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.example/queue"}

	if err := client.Send(context.Background(), Message{TaskID: "t1"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(fake.input.QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected queue url %v", fake.input.QueueUrl)
	}
	msg, err := DecodeMessage([]byte(aws.ToString(fake.input.MessageBody)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.TaskID != "t1" || msg.Version != MessageVersion {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty queue url")
	}
}
