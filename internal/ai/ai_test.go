package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ObiAU/techpulse/internal/cache"
	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/logger"
)

func TestParseResult(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		res, err := ParseResult(`{"category": " Big Tech ", "keywords": [{"text":"ai"}, 3, "x"]}`)
		require.NoError(t, err)
		assert.Equal(t, "Big Tech", res.String("category"))
		assert.Len(t, res.Objects("keywords"), 1, "non-object array items are skipped")
		assert.Nil(t, res.Objects("hot_topics"))
		assert.True(t, res.Has("keywords"))
		assert.False(t, res.Has("hot_topics"))
	})

	t.Run("code fenced", func(t *testing.T) {
		res, err := ParseResult("```json\n{\"category\":\"Other\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "Other", res.String("category"))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, content := range []string{`{"category":`, `["a","b"]`, `"just text"`, `I think it is AI`} {
			_, err := ParseResult(content)
			assert.ErrorIs(t, err, ErrMalformedResponse, content)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseResult("   ")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestResult_ScoresAndLiteralKeys(t *testing.T) {
	res, err := ParseResult(`{"AI/ML": 9, "Developer Tools": "7", "v1.0": 2, "Design": "high", "Other": null}`)
	require.NoError(t, err)

	scores := res.Scores()
	assert.Equal(t, map[string]float64{"AI/ML": 9, "Developer Tools": 7, "v1.0": 2}, scores)
	assert.True(t, res.Has("v1.0"), "dots in keys are not treated as paths")

	nested, err := ParseResult(`{"scores": {"Finance": 4}}`)
	require.NoError(t, err)
	inner, ok := nested.Object("scores")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"Finance": 4}, inner.Scores())
}

type countingOracle struct {
	calls   int
	answer  string
	failing bool
}

func (o *countingOracle) Classify(_ context.Context, _, _ string) (*Result, error) {
	o.calls++
	if o.failing {
		return nil, errors.New("upstream down")
	}
	return ParseResult(o.answer)
}

func TestCachedOracle(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	defer store.Close()

	inner := &countingOracle{answer: `{"category":"Big Tech"}`}
	oracle := NewCachedOracle(inner, store, time.Hour, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := oracle.Classify(ctx, "classify", "Will Apple ship AR glasses?")
		require.NoError(t, err)
		assert.Equal(t, "Big Tech", res.String("category"))
	}
	assert.Equal(t, 1, inner.calls, "repeat questions are served from cache")

	_, err := oracle.Classify(ctx, "classify", "another question")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedOracle_DoesNotCacheFailures(t *testing.T) {
	store := cache.NewMemory(time.Hour)
	defer store.Close()

	inner := &countingOracle{failing: true}
	oracle := NewCachedOracle(inner, store, time.Hour, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := oracle.Classify(context.Background(), "i", "p")
		require.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, store.Stats()["entries"])
}

func TestNew_DisabledWithoutCredential(t *testing.T) {
	cfg := &config.Config{}
	cfg.Oracle.Provider = "openai"

	oracle, err := New(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, oracle)
}

func TestNew_OpenAI(t *testing.T) {
	cfg := &config.Config{}
	cfg.Oracle.Provider = "openai"
	cfg.Oracle.OpenAIAPIKey = "sk-test"
	cfg.Oracle.OpenAIModel = "gpt-4o"

	oracle, err := New(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, oracle)

	store := cache.NewMemory(time.Hour)
	defer store.Close()
	oracle, err = New(context.Background(), cfg, store, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &CachedOracle{}, oracle)
}
