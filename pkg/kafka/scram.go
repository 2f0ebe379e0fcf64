package kafka

import (
	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// scramClient adapts an xdg-go/scram conversation to sarama's SCRAMClient
type scramClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (s *scramClient) Begin(userName, password, authzID string) error {
	client, err := s.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}

	s.Client = client
	s.ClientConversation = client.NewConversation()
	return nil
}

func (s *scramClient) Step(challenge string) (string, error) {
	return s.ClientConversation.Step(challenge)
}

func (s *scramClient) Done() bool {
	return s.ClientConversation.Done()
}

// SCRAMClientGenerator returns the sarama client generator of a SCRAM mechanism
func SCRAMClientGenerator(mechanism sarama.SASLMechanism) func() sarama.SCRAMClient {
	hash := scram.SHA256
	if mechanism == sarama.SASLTypeSCRAMSHA512 {
		hash = scram.SHA512
	}

	return func() sarama.SCRAMClient {
		return &scramClient{HashGeneratorFcn: hash}
	}
}
