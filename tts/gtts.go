package tts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-bridge/model"
)

const (
	GTTSURL = "https://translate.google.com/translate_tts"

	// maxTokenChars is the longest text the endpoint accepts per request.
	maxTokenChars = 100
)

// GTTSConfig configures GTTSClient.
type GTTSConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GTTSClient speaks text through the Google Translate speech endpoint.
// Text is split into short tokens and the returned MP3 parts are
// concatenated in order.
type GTTSClient struct {
	baseURL string
	http    *http.Client
}

func NewGTTSClient(cfg GTTSConfig) *GTTSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GTTSURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GTTSClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GTTSClient) Name() string { return "gtts" }

func (g *GTTSClient) Synthesize(ctx context.Context, text, lang string) (model.AudioBuffer, error) {
	if lang == "" {
		lang = "en"
	}

	tokens := Tokenize(text, maxTokenChars)
	if len(tokens) == 0 {
		return model.AudioBuffer{}, providerError(errors.New("nothing to speak"))
	}

	var out bytes.Buffer
	for i, tok := range tokens {
		part, err := g.fetch(ctx, tok, lang, i, len(tokens))
		if err != nil {
			return model.AudioBuffer{}, providerError(errors.Wrapf(err, "token %d/%d", i+1, len(tokens)))
		}
		out.Write(part)
	}

	return model.AudioBuffer{
		Data:   out.Bytes(),
		Format: model.Format{Container: model.ContainerMP3},
	}, nil
}

func (g *GTTSClient) fetch(ctx context.Context, tok, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", tok)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(tok)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bad status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return nil, errors.New("empty audio")
	}
	return data, nil
}

// Tokenize splits text on whitespace into chunks of at most max runes.
// Words longer than max are cut.
func Tokenize(text string, max int) []string {
	var tokens []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > max {
			flush()
			r := []rune(word)
			tokens = append(tokens, string(r[:max]))
			word = string(r[max:])
		}

		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()

	return tokens
}
