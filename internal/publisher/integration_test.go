//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"legispulse/internal/domain"
	"legispulse/testdata/utils"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange",
		RoutingKey: "test-routing-key",
		QueueName:  "test-queue",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.NoError(err)
	s.NotNil(pub)

	err = pub.Close()
	s.NoError(err)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishCreate() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-create",
		RoutingKey: "test-routing-key-create",
		QueueName:  "test-queue-create",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	bill := &domain.Bill{
		ID:          "bill-HB-1-1",
		LegiScanID:  utils.Ptr(int64(1899001)),
		BillNumber:  "HB 1",
		Title:       "Property Tax Relief Act",
		Type:        domain.TypeBill,
		Chamber:     domain.ChamberHouse,
		SessionYear: 2026,
		Sponsor:     "Rep. A",
		Sponsors:    []string{"Rep. A"},
		Status:      domain.StatusIntroduced,
		LastAction:  "First Reading",
	}

	err = pub.Publish(s.ctx, bill, true)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	var received BillMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal("create", received.Action)
	s.Equal("HB 1", received.Bill.BillNumber)
	s.Equal("Property Tax Relief Act", received.Bill.Title)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishUpdate() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-update",
		RoutingKey: "test-routing-key-update",
		QueueName:  "test-queue-update",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	bill := &domain.Bill{
		ID:          "bill-SB-5-2",
		BillNumber:  "SB 5",
		Title:       "Water Rights Act",
		Chamber:     domain.ChamberSenate,
		SessionYear: 2026,
		Status:      domain.StatusInCommittee,
		LastAction:  "Referred to Senate Natural Resources Committee",
	}

	err = pub.Publish(s.ctx, bill, false)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	var received BillMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)
	s.Equal("update", received.Action)
	s.Equal("SB 5", received.Bill.BillNumber)
	s.Equal(domain.StatusInCommittee, received.Bill.Status)
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessageFormat() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-format",
		RoutingKey: "test-routing-key-format",
		QueueName:  "test-queue-format",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	actionDate := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	bill := &domain.Bill{
		ID:              "bill-HB-12-3",
		LegiScanID:      utils.Ptr(int64(1899012)),
		BillNumber:      "HB 12",
		Title:           "Education Funding Act",
		Type:            domain.TypeBill,
		Chamber:         domain.ChamberHouse,
		SessionYear:     2026,
		Sponsor:         "Rep. A",
		Sponsors:        []string{"Rep. A", "Rep. B"},
		CoSponsors:      []string{"Rep. B"},
		Status:          domain.StatusInCommittee,
		LastAction:      "Referred to House Education Committee",
		LastActionDate:  &actionDate,
		Summary:         utils.Ptr("Short summary."),
		ChangesAnalysis: utils.Ptr("Detailed analysis."),
		OCGASections:    []string{"20-2-161"},
		PDFURL:          utils.Ptr("https://example.com/hb12.pdf"),
	}

	err = pub.Publish(s.ctx, bill, true)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)

	s.Equal("application/json", msg.ContentType)

	var received BillMessage
	err = json.Unmarshal(msg.Body, &received)
	s.NoError(err)

	s.Equal("create", received.Action)
	s.Equal("HB 12", received.Bill.BillNumber)
	s.Equal(domain.ChamberHouse, received.Bill.Chamber)
	s.Equal([]string{"Rep. A", "Rep. B"}, received.Bill.Sponsors)
	s.Require().NotNil(received.Bill.Summary)
	s.Equal("Short summary.", *received.Bill.Summary)
	s.Require().NotNil(received.Bill.PDFURL)
	s.Equal("https://example.com/hb12.pdf", *received.Bill.PDFURL)
	s.Equal([]string{"20-2-161"}, received.Bill.OCGASections)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_MessagePersistence() {
	cfg := Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-persist",
		RoutingKey: "test-routing-key-persist",
		QueueName:  "test-queue-persist",
	}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	bill := &domain.Bill{
		ID:          "bill-HB-2-4",
		BillNumber:  "HB 2",
		SessionYear: 2026,
		Status:      domain.StatusIntroduced,
	}

	err = pub.Publish(s.ctx, bill, true)
	s.NoError(err)

	msg := s.consumeMessage(cfg)
	s.NotNil(msg)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
