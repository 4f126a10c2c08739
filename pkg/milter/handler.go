package milter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/d--j/go-milter"
	"github.com/zpam/phish-filter/pkg/config"
	"github.com/zpam/phish-filter/pkg/email"
	"github.com/zpam/phish-filter/pkg/learning"
	"github.com/zpam/phish-filter/pkg/tracker"
	"go.uber.org/zap"
)

// Classifier labels a message; *learning.Model satisfies it
type Classifier interface {
	Predict(subject, body string) (*learning.Result, error)
}

// Handler implements the milter.Milter interface for one SMTP connection
type Handler struct {
	milter.NoOpMilter
	config  *config.Config
	model   Classifier
	logger  *zap.Logger
	parser  *email.Parser
	senders *tracker.SenderTracker

	// Message being assembled during the session
	from    string
	rcpts   []string
	headers []headerField
	body    bytes.Buffer

	connectAddr string
	startTime   time.Time
}

type headerField struct {
	name  string
	value string
}

// NewHandler creates a new milter handler. senders may be nil to disable
// per-sender history.
func NewHandler(cfg *config.Config, model Classifier, senders *tracker.SenderTracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lm, ok := model.(*learning.Model); ok && lm != nil {
		model = lm.WithTopIndicators(cfg.Detection.TopIndicators)
	}
	return &Handler{
		config:    cfg,
		model:     model,
		logger:    logger,
		parser:    email.NewParser(),
		senders:   senders,
		startTime: time.Now(),
	}
}

// NewConnection is called when a new SMTP connection is established
func (h *Handler) NewConnection(m milter.Modifier) error {
	h.startTime = time.Now()
	return nil
}

// Connect is called when connection information is available
func (h *Handler) Connect(host string, family string, port uint16, addr string, m milter.Modifier) (*milter.Response, error) {
	h.connectAddr = addr
	return milter.RespContinue, nil
}

// MailFrom is called when MAIL FROM is received
func (h *Handler) MailFrom(from string, esmtpArgs string, m milter.Modifier) (*milter.Response, error) {
	h.reset()
	h.from = from
	h.startTime = time.Now()
	return milter.RespContinue, nil
}

// RcptTo is called for each RCPT TO
func (h *Handler) RcptTo(rcptTo string, esmtpArgs string, m milter.Modifier) (*milter.Response, error) {
	h.rcpts = append(h.rcpts, rcptTo)
	return milter.RespContinue, nil
}

// Header is called for each header
func (h *Handler) Header(name string, value string, m milter.Modifier) (*milter.Response, error) {
	h.headers = append(h.headers, headerField{name: name, value: value})
	return milter.RespContinue, nil
}

// Headers is called when all headers have been received
func (h *Handler) Headers(m milter.Modifier) (*milter.Response, error) {
	return milter.RespContinue, nil
}

// BodyChunk is called for each body chunk
func (h *Handler) BodyChunk(chunk []byte, m milter.Modifier) (*milter.Response, error) {
	h.body.Write(chunk)
	return milter.RespContinue, nil
}

// EndOfMessage classifies the assembled message
func (h *Handler) EndOfMessage(m milter.Modifier) (*milter.Response, error) {
	subject, body := h.content()

	result, err := h.model.Predict(subject, body)
	if err != nil {
		h.logger.Error("classification failed", zap.String("from", h.from), zap.Error(err))
		return milter.RespTempFail, nil
	}

	v := Decide(result, h.config)
	if model, ok := h.model.(*learning.Model); ok {
		v.ModelID = model.ID
	}

	if h.senders != nil && h.from != "" {
		history := h.senders.Record(h.from, v.Status == statusPhishing)
		v.SenderHistory = fmt.Sprintf("%d/%d", history.PhishingInWindow, history.MessagesInWindow)
	}

	h.logger.Info("message classified",
		zap.String("from", h.from),
		zap.Strings("rcpt", h.rcpts),
		zap.String("addr", h.connectAddr),
		zap.String("label", string(result.Label)),
		zap.Float64("phishing_probability", v.Score),
		zap.Bool("reject", v.Reject),
		zap.String("sender_history", v.SenderHistory),
		zap.Duration("elapsed", time.Since(h.startTime)),
	)

	if h.config.Milter.AddHeaders {
		if err := h.addHeaders(m, v); err != nil {
			return milter.RespTempFail, fmt.Errorf("failed to add phishing headers: %w", err)
		}
	}

	if v.Reject {
		resp, err := milter.RejectWithCodeAndReason(550, v.Message)
		if err != nil {
			return milter.RespReject, nil
		}
		return resp, nil
	}
	return milter.RespContinue, nil
}

// Abort is called when the message is aborted
func (h *Handler) Abort(m milter.Modifier) error {
	h.reset()
	return nil
}

func (h *Handler) reset() {
	h.from = ""
	h.rcpts = nil
	h.headers = nil
	h.body.Reset()
}

// content rebuilds the raw message and decodes it. If MIME parsing fails the
// Subject header and raw body are used as-is.
func (h *Handler) content() (string, string) {
	var raw bytes.Buffer
	var subject string
	for _, f := range h.headers {
		fmt.Fprintf(&raw, "%s: %s\r\n", f.name, f.value)
		if strings.EqualFold(f.name, "Subject") {
			subject = f.value
		}
	}
	raw.WriteString("\r\n")
	raw.Write(h.body.Bytes())

	parsed, err := h.parser.Parse(&raw)
	if err != nil {
		h.logger.Debug("falling back to raw body", zap.Error(err))
		return subject, h.body.String()
	}
	return parsed.Subject, parsed.Body
}

// addHeaders adds the <prefix>-named verdict headers
func (h *Handler) addHeaders(m milter.Modifier, v Verdict) error {
	prefix := h.config.Milter.HeaderPrefix
	fields := []headerField{
		{"Status", v.Status},
		{"Score", fmt.Sprintf("%.4f", v.Score)},
		{"Indicators", strings.Join(v.Indicators, ", ")},
		{"Info", fmt.Sprintf("phish-filter; %.2fms", float64(time.Since(h.startTime).Microseconds())/1000)},
	}
	if v.ModelID != "" {
		fields = append(fields, headerField{"Model", v.ModelID})
	}
	if v.SenderHistory != "" {
		fields = append(fields, headerField{"Sender-History", v.SenderHistory})
	}
	for _, f := range fields {
		if err := m.AddHeader(prefix+f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

const (
	statusPhishing   = "Phishing"
	statusLegitimate = "Legitimate"
)

// Verdict is the milter decision for one classified message
type Verdict struct {
	Status     string
	Score      float64 // phishing probability
	Indicators []string
	ModelID    string
	Reject     bool
	Message    string

	// "<phishing>/<messages>" from this sender within the tracking window
	SenderHistory string
}

// Decide maps a classification result to header values and a reject
// decision. A message is flagged when its phishing probability reaches the
// detection threshold and rejected when rejection is enabled and the
// probability reaches the reject threshold.
func Decide(result *learning.Result, cfg *config.Config) Verdict {
	score := result.Probabilities[learning.Phishing]

	v := Verdict{
		Status: statusLegitimate,
		Score:  score,
	}
	if score >= cfg.Detection.PhishingThreshold {
		v.Status = statusPhishing
	}
	for _, ind := range result.Indicators {
		v.Indicators = append(v.Indicators, ind.Term)
	}

	if cfg.Milter.RejectEnabled && score >= cfg.Milter.RejectThreshold {
		v.Reject = true
		v.Message = cfg.Milter.RejectMessage
		if v.Message == "" {
			v.Message = fmt.Sprintf("5.7.1 Message rejected as phishing (probability: %.2f)", score)
		}
	}
	return v
}
