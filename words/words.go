// words/words.go
package words

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/wfunc/wordserver/logger"
)

// fallbackWords is the static vocabulary used whenever the word API is
// unreachable or returns an invalid word.
var fallbackWords = []string{
	"FAMILY", "FRIEND", "MARKET", "WINDOW", "FLOWER", "SCHOOL",
	"STREET", "ANIMAL", "TRAVEL", "MUSIC", "LANGUAGE", "HOSPITAL",
	"ADVENTURE", "IMPORTANT", "BEAUTIFUL", "DANGEROUS", "DIFFERENT",
	"SITUATION",
}

// Provider supplies uppercase candidate words. It calls a random-word API,
// optionally validates the result against a dictionary API, and falls back
// to the static pool on any failure. No internal timeout: callers bound
// the call through ctx if they need to.
type Provider struct {
	client        *http.Client
	randomWordURL string
	dictionaryURL string
	wordLength    int
}

func NewProvider(randomWordURL, dictionaryURL string, wordLength int) *Provider {
	return &Provider{
		client:        &http.Client{},
		randomWordURL: randomWordURL,
		dictionaryURL: dictionaryURL,
		wordLength:    wordLength,
	}
}

// GetRandomWord returns an uppercase word. The fallback pool means the
// only error a caller can see is its own context expiring.
func (p *Provider) GetRandomWord(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	word, err := p.fetchWord(ctx)
	if err != nil {
		logger.Log.Warnf("Random word API failed, using fallback: %v", err)
		return p.fallbackWord(), nil
	}

	if p.dictionaryURL != "" && !p.validateWord(ctx, word) {
		logger.Log.Warnf("Word %q failed dictionary validation, using fallback", word)
		return p.fallbackWord(), nil
	}

	return word, nil
}

func (p *Provider) fetchWord(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s?length=%d", p.randomWordURL, p.wordLength)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("word API returned status %d", resp.StatusCode)
	}

	var words []string
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil {
		return "", err
	}
	if len(words) == 0 || words[0] == "" {
		return "", fmt.Errorf("word API returned no words")
	}

	return strings.ToUpper(words[0]), nil
}

func (p *Provider) validateWord(ctx context.Context, word string) bool {
	url := fmt.Sprintf("%s/%s", p.dictionaryURL, strings.ToLower(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (p *Provider) fallbackWord() string {
	return fallbackWords[rand.Intn(len(fallbackWords))]
}
