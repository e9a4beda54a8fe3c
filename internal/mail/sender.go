package mail

import (
	"fmt"

	"go.uber.org/zap"
)

// Transport names accepted by NewSender.
const (
	TransportLog   = "log"
	TransportSMTP  = "smtp"
	TransportKafka = "kafka"
)

// KafkaConfig configures the relay topic transport.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewSender picks the transport by name. The returned close function must be
// called on shutdown; it is a no-op for transports holding no resources.
func NewSender(transport string, smtpCfg SMTPConfig, kafkaCfg KafkaConfig, log *zap.Logger) (Sender, func() error, error) {
	noop := func() error { return nil }

	switch transport {
	case "", TransportLog:
		return NewLogSender(log), noop, nil
	case TransportSMTP:
		s, err := NewSMTPSender(smtpCfg)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case TransportKafka:
		if len(kafkaCfg.Brokers) == 0 || kafkaCfg.Topic == "" {
			return nil, noop, fmt.Errorf("mail.NewSender: kafka transport needs brokers and a topic")
		}
		s := NewKafkaSender(kafkaCfg.Brokers, kafkaCfg.Topic)
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("mail.NewSender: unknown transport %q", transport)
	}
}
