package cluster

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
	"golang.org/x/time/rate"

	"github.com/Vashnak/Franz-manager-sub000/internal/config"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// Client implements Admin on top of kadm. Every request waits on a shared
// rate limiter so a busy console cannot flood the cluster.
type Client struct {
	name    string
	kgo     *kgo.Client
	adm     *kadm.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// Dial builds a client for cl. franz-go connects lazily, so Dial does not
// fail on unreachable brokers; the first request does.
func Dial(cl config.ClusterConfig, rateLimit float64, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cl.Brokers...),
		kgo.ClientID(cl.ClientID),
	}

	if cl.TLS.Enabled {
		tlsCfg, err := tlsConfig(cl.TLS)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cl.Name, err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	switch cl.SASL.Mechanism {
	case "":
	case config.MechanismPlain:
		opts = append(opts, kgo.SASL(plain.Auth{User: cl.SASL.Username, Pass: cl.SASL.Password}.AsMechanism()))
	case config.MechanismScramSHA256:
		opts = append(opts, kgo.SASL(scram.Auth{User: cl.SASL.Username, Pass: cl.SASL.Password}.AsSha256Mechanism()))
	case config.MechanismScramSHA512:
		opts = append(opts, kgo.SASL(scram.Auth{User: cl.SASL.Username, Pass: cl.SASL.Password}.AsSha512Mechanism()))
	default:
		return nil, fmt.Errorf("cluster %s: unsupported SASL mechanism %q", cl.Name, cl.SASL.Mechanism)
	}

	kc, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client for %s: %w", cl.Name, err)
	}

	burst := int(rateLimit)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		name:    cl.Name,
		kgo:     kc,
		adm:     kadm.NewClient(kc),
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
		timeout: timeout,
		logger:  logger.With("cluster", cl.Name),
	}, nil
}

func tlsConfig(c config.TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	if c.CAFile == "" {
		return tlsCfg, nil
	}
	pem, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("no certificate found in CA file")
	}
	tlsCfg.RootCAs = pool
	return tlsCfg, nil
}

func (c *Client) Name() string { return c.name }

// begin waits for the limiter and bounds the call with the request timeout.
func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("admin rate limit: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return ctx, cancel, nil
}

func (c *Client) ListTopics(ctx context.Context) ([]models.Topic, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	details, err := c.adm.ListTopicsWithInternal(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	for _, d := range details {
		if d.Err != nil {
			c.logger.Warn("Topic metadata returned an error", "topic", d.Topic, "error", d.Err)
		}
	}
	return topicsFromDetails(details), nil
}

func (c *Client) TopicPartitions(ctx context.Context, topic string) ([]models.Partition, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	details, err := c.adm.ListTopicsWithInternal(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("describe topic %s: %w", topic, err)
	}
	d, ok := details[topic]
	if !ok || d.Err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}

	// Offsets are informative only; a failure here still returns the layout.
	starts, err := c.adm.ListStartOffsets(ctx, topic)
	if err != nil {
		c.logger.Warn("Failed to list start offsets", "topic", topic, "error", err)
	}
	ends, err := c.adm.ListEndOffsets(ctx, topic)
	if err != nil {
		c.logger.Warn("Failed to list end offsets", "topic", topic, "error", err)
	}
	return partitionsFromDetail(d, offsetLookup(starts), offsetLookup(ends)), nil
}

func (c *Client) DescribeTopicConfigs(ctx context.Context, topic string) ([]models.ConfigEntry, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rcs, err := c.adm.DescribeTopicConfigs(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("describe configs of %s: %w", topic, err)
	}
	rc, err := rcs.On(topic, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}
	if rc.Err != nil {
		return nil, fmt.Errorf("describe configs of %s: %w", topic, topicErr(rc.Err))
	}
	return configEntries(rc.Configs), nil
}

func (c *Client) AlterTopicConfigs(ctx context.Context, topic string, configs map[string]*string) error {
	if len(configs) == 0 {
		return nil
	}
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	resps, err := c.adm.AlterTopicConfigs(ctx, alterations(configs), topic)
	if err != nil {
		return fmt.Errorf("alter configs of %s: %w", topic, err)
	}
	for _, r := range resps {
		if r.Err != nil {
			if r.ErrMessage != "" {
				return fmt.Errorf("alter configs of %s: %w: %s", r.Name, topicErr(r.Err), r.ErrMessage)
			}
			return fmt.Errorf("alter configs of %s: %w", r.Name, topicErr(r.Err))
		}
	}
	return nil
}

func (c *Client) CreateTopic(ctx context.Context, req CreateTopicRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	resp, err := c.adm.CreateTopic(ctx, req.Partitions, req.ReplicationFactor, req.Configs, req.Name)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", req.Name, err)
	}
	if resp.Err != nil {
		if resp.ErrMessage != "" {
			return fmt.Errorf("create topic %s: %w: %s", req.Name, topicErr(resp.Err), resp.ErrMessage)
		}
		return fmt.Errorf("create topic %s: %w", req.Name, topicErr(resp.Err))
	}
	return nil
}

func (c *Client) DeleteTopic(ctx context.Context, topic string) error {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	resps, err := c.adm.DeleteTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("delete topic %s: %w", topic, err)
	}
	if r, ok := resps[topic]; ok && r.Err != nil {
		return fmt.Errorf("delete topic %s: %w", topic, topicErr(r.Err))
	}
	return nil
}

func (c *Client) ListBrokers(ctx context.Context) ([]models.Broker, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	meta, err := c.adm.BrokerMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	return brokersFromMetadata(meta.Brokers, meta.Controller), nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.ConsumerGroup, error) {
	ctx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	listed, err := c.adm.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if len(listed) == 0 {
		return []models.ConsumerGroup{}, nil
	}

	lags, err := c.adm.Lag(ctx, listed.Groups()...)
	if err != nil {
		return nil, fmt.Errorf("describe group lag: %w", err)
	}
	for name, l := range lags {
		if l.Error() != nil {
			c.logger.Warn("Group lag is partial", "group", name, "error", l.Error())
		}
	}
	return groupsFromLags(lags), nil
}

// topicErr maps the broker errors the API reports as client errors onto the
// package's sentinel errors.
func topicErr(err error) error {
	switch {
	case errors.Is(err, kerr.UnknownTopicOrPartition):
		return fmt.Errorf("%w (%v)", ErrTopicNotFound, err)
	case errors.Is(err, kerr.TopicAlreadyExists):
		return fmt.Errorf("%w (%v)", ErrTopicExists, err)
	case errors.Is(err, kerr.InvalidConfig),
		errors.Is(err, kerr.InvalidPartitions),
		errors.Is(err, kerr.InvalidReplicationFactor),
		errors.Is(err, kerr.InvalidReplicaAssignment),
		errors.Is(err, kerr.InvalidTopicException),
		errors.Is(err, kerr.InvalidRequest),
		errors.Is(err, kerr.PolicyViolation):
		return fmt.Errorf("%w (%v)", ErrInvalidRequest, err)
	}
	return err
}

func (c *Client) Close() {
	c.adm.Close()
}
