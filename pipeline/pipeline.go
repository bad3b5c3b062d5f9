// Package pipeline runs one voice exchange end to end: normalize the
// inbound audio, transcribe it, generate a reply and synthesize it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrsingh-rishi/voice-bridge/audio"
	"github.com/mrsingh-rishi/voice-bridge/llm"
	"github.com/mrsingh-rishi/voice-bridge/metrics"
	"github.com/mrsingh-rishi/voice-bridge/model"
	"github.com/mrsingh-rishi/voice-bridge/stt"
	"github.com/mrsingh-rishi/voice-bridge/tts"
)

// Orchestrator owns the three providers and runs requests through them.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	stt     stt.Transcriber
	gen     llm.Generator
	tts     tts.Synthesizer
	opts    Options
	prompt  *llm.Prompt
	chat    *llm.Prompt
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New builds an Orchestrator. m may be nil.
func New(t stt.Transcriber, g llm.Generator, s tts.Synthesizer, opts Options, logger *slog.Logger, m *metrics.Metrics) (*Orchestrator, error) {
	if t == nil || g == nil || s == nil {
		return nil, fmt.Errorf("transcriber, generator and synthesizer are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	prompt, err := llm.ParsePrompt(opts.PromptTemplate)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		stt:     t,
		gen:     g,
		tts:     s,
		opts:    opts,
		prompt:  prompt,
		chat:    llm.MustParsePrompt(llm.ChatTemplate),
		logger:  logger.With(slog.String("component", "pipeline")),
		metrics: m,
	}, nil
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Run takes req through every stage. The returned Result is never nil and
// ends in StateResponded or StateFailed; on failure the error is also
// returned as *model.Error. Temporary files created during the run are
// removed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, req *model.PipelineRequest) (*Result, error) {
	start := time.Now()
	res := newResult(req.ID)
	logger := o.logger.With(slog.String("request_id", req.ID))

	if o.metrics != nil {
		o.metrics.InFlight.Inc()
		o.metrics.RecordInput(len(req.Audio))
		defer o.metrics.InFlight.Dec()
	}
	defer func() {
		outcome := string(res.State())
		logger.Info("Pipeline finished",
			slog.String("state", outcome),
			slog.Duration("elapsed", time.Since(start)),
		)
		if o.metrics != nil {
			o.metrics.RecordRequest(string(req.Source), outcome, time.Since(start).Seconds())
			if res.Err != nil {
				o.metrics.RecordFailure(string(res.Err.Stage), string(res.Err.Kind))
			}
		}
	}()

	out := req.Output
	if out == "" {
		out = o.opts.OutputContainer
	}

	buf, err := audio.Normalize(req.Audio, req.Source, o.opts.MinDuration)
	if err != nil {
		return o.failed(logger, res, model.AsError(err, model.StageNormalize))
	}
	res.advance(StateNormalized)

	tmp, err := audio.Spool(o.opts.TempDir, buf)
	if err != nil {
		return o.failed(logger, res, model.NewError(model.KindInternal, model.StageNormalize, err))
	}
	defer func() {
		if err := tmp.Close(); err != nil {
			logger.Warn("Failed to remove temp file", slog.String("error", err.Error()))
		}
	}()
	buf.Path = tmp.Path()

	transcript, err := o.transcribe(ctx, buf)
	if err != nil {
		return o.failed(logger, res, model.AsError(err, model.StageTranscribe))
	}
	res.Transcript = transcript

	userText := transcript.Text
	if !transcript.OK() {
		if o.opts.STTFailurePolicy == Halt {
			return o.failed(logger, res, model.NewError(model.FailureKind(transcript.Failure), model.StageTranscribe, transcript.Cause))
		}
		logger.Warn("Transcription failed, substituting fallback",
			slog.String("failure", string(transcript.Failure)),
		)
		userText = o.opts.FallbackText
		res.Substituted = true
		if o.metrics != nil {
			o.metrics.RecordSubstitution()
		}
	}
	res.advance(StateTranscribed)
	logger.Debug("Transcribed", slog.String("text", userText))

	system := req.SystemPrompt
	if system == "" {
		system = o.opts.SystemPrompt
	}
	exchange, err := o.reply(ctx, o.prompt, userText, system)
	res.Exchange = exchange
	if err != nil {
		return o.failed(logger, res, model.AsError(err, model.StageReply))
	}
	res.advance(StateReplied)
	logger.Debug("Replied", slog.String("text", exchange.ReplyText))

	speech, err := o.Speak(ctx, exchange.ReplyText, out)
	if err != nil {
		return o.failed(logger, res, model.AsError(err, model.StageSynthesize))
	}
	res.Audio = speech
	res.advance(StateSynthesized)

	res.advance(StateResponded)
	return res, nil
}

// Transcribe runs only the transcription stage on an uploaded file.
// Transcription failures are always returned as typed errors here.
func (o *Orchestrator) Transcribe(ctx context.Context, data []byte, src model.Container) (string, error) {
	buf, err := audio.Normalize(data, src, 0)
	if err != nil {
		return "", err
	}

	tmp, err := audio.Spool(o.opts.TempDir, buf)
	if err != nil {
		return "", model.NewError(model.KindInternal, model.StageTranscribe, err)
	}
	defer tmp.Close()
	buf.Path = tmp.Path()

	res, err := o.transcribe(ctx, buf)
	if err != nil {
		return "", model.AsError(err, model.StageTranscribe)
	}
	if !res.OK() {
		return "", model.NewError(model.FailureKind(res.Failure), model.StageTranscribe, res.Cause)
	}
	return res.Text, nil
}

// Chat runs only the reply stage with the chat completions prompt layout.
func (o *Orchestrator) Chat(ctx context.Context, userText, system string) (model.ChatExchange, error) {
	return o.reply(ctx, o.chat, userText, system)
}

// Speak runs only the synthesis stage.
func (o *Orchestrator) Speak(ctx context.Context, text string, out model.Container) (model.AudioBuffer, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.TTSTimeout)
	defer cancel()

	start := time.Now()
	buf, err := tts.Speak(ctx, o.tts, text, o.opts.VoiceLanguage, out)
	o.observe(model.StageSynthesize, o.tts.Name(), start)
	if err == nil && o.metrics != nil {
		o.metrics.RecordOutput(string(buf.Format.Container), len(buf.Data))
	}
	return buf, err
}

func (o *Orchestrator) transcribe(ctx context.Context, buf model.AudioBuffer) (model.TranscriptionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.STTTimeout)
	defer cancel()

	start := time.Now()
	defer o.observe(model.StageTranscribe, o.stt.Name(), start)

	calibrated, err := stt.Calibrate(ctx, o.stt, buf)
	if err != nil {
		o.logger.Warn("Noise calibration failed, using raw audio", slog.String("error", err.Error()))
		calibrated = buf
	}
	return o.stt.Transcribe(ctx, calibrated)
}

func (o *Orchestrator) reply(ctx context.Context, p *llm.Prompt, userText, system string) (model.ChatExchange, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.LLMTimeout)
	defer cancel()

	start := time.Now()
	defer o.observe(model.StageReply, "llm", start)

	return llm.ReplyTo(ctx, o.gen, p, userText, system)
}

func (o *Orchestrator) observe(stage model.Stage, provider string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStage(string(stage), provider, time.Since(start).Seconds())
	}
}

func (o *Orchestrator) failed(logger *slog.Logger, res *Result, err *model.Error) (*Result, error) {
	logger.Warn("Pipeline failed",
		slog.String("stage", string(err.Stage)),
		slog.String("kind", string(err.Kind)),
		slog.String("error", err.Error()),
	)
	return res.fail(err), err
}
