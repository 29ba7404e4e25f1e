package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Distinct fragments of each system prompt, used to script replies
const (
	keyDecompose = "breaking complex investment questions"
	keyTicker    = "stock ticker extractor"
	keyMember    = "data extractor"
	keySynthesis = "Produce one complete, professional reply"
	keyRisk      = "specialising in risk assessment"
	keyAdvice    = "personalised advice"
	keyGeneric   = "Regarding '"
)

// scriptedLLM answers by the first key found in the first message
type scriptedLLM struct {
	replies map[string]string
	fail    map[string]bool
	err     error
	calls   []string
	params  []llm.Params
}

func (s *scriptedLLM) Complete(ctx context.Context, msgs []llm.ChatMessage, p llm.Params) (string, error) {
	s.params = append(s.params, p)
	if s.err != nil {
		return "", s.err
	}
	for key, reply := range s.replies {
		if strings.Contains(msgs[0].Content, key) {
			s.calls = append(s.calls, key)
			if s.fail[key] {
				return "", errors.New("scripted failure")
			}
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

func TestExtractTicker(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reply  string
		want   string
		wantOK bool
	}{
		{"shortlist", "how is aapl doing", "", "AAPL", true},
		{"shortlist next to punctuation", "META's earnings?", "", "META", true},
		{"shortlist next to chinese", "特斯拉TSLA股价", "", "TSLA", true},
		{"shortlist word inside another word", "how are precious metals priced today", "none", "", false},
		{"inner word falls through to the model", "any metaverse stocks", "RBLX", "RBLX", true},
		{"model reply", "what about Taiwan Semiconductor", "TSM", "TSM", true},
		{"model reply with noise", "Alibaba stock", " \"baba\". ", "BABA", true},
		{"model says none", "how are markets", "none", "", false},
		{"model rambles", "anything", "I think it is probably Apple", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedLLM{replies: map[string]string{keyTicker: tt.reply}}
			got, ok := ExtractTicker(context.Background(), c, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTicker_GatewayFailure(t *testing.T) {
	_, ok := ExtractTicker(context.Background(), &scriptedLLM{err: errors.New("down")}, "Alibaba")
	assert.False(t, ok)

	_, ok = ExtractTicker(context.Background(), nil, "Alibaba")
	assert.False(t, ok)
}

func TestExtractTierHint(t *testing.T) {
	tests := []struct {
		text string
		want risk.Tier
	}{
		{"I am a conservative investor", risk.TierLow},
		{"I prefer low-risk products", risk.TierLow},
		{"我是保守型投资者", risk.TierLow},
		{"I'm aggressive, give me high risk ideas", risk.TierHigh},
		{"我想要高风险的投资", risk.TierHigh},
		{"what should I invest in", risk.TierMedium},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTierHint(tt.text))
		})
	}
}

func TestExtractMember(t *testing.T) {
	t.Run("overlays extracted fields on the default profile", func(t *testing.T) {
		c := &scriptedLLM{replies: map[string]string{
			keyMember: "```json\n{\"age\": 52, \"loan\": true, \"job\": \"Nurse\"}\n```",
		}}
		m, defaulted := ExtractMember(context.Background(), c, "I'm 52, a nurse with a car loan")
		assert.False(t, defaulted)
		assert.Equal(t, 52, m.Age)
		assert.True(t, m.Balance.Equal(decimal.NewFromInt(10000)))
		assert.True(t, m.HasPersonalLoan)
		assert.False(t, m.HasHousingLoan)
		assert.Equal(t, "nurse", m.Job)
		assert.Equal(t, risk.UnknownCategory, m.Marital)
	})

	t.Run("unparseable reply uses the default profile", func(t *testing.T) {
		c := &scriptedLLM{replies: map[string]string{keyMember: "no idea"}}
		m, defaulted := ExtractMember(context.Background(), c, "hello")
		assert.True(t, defaulted)
		assert.Equal(t, DefaultMember, m)
	})

	t.Run("implausible age uses the default profile", func(t *testing.T) {
		c := &scriptedLLM{replies: map[string]string{keyMember: `{"age": 400}`}}
		m, defaulted := ExtractMember(context.Background(), c, "I am 400 years old")
		assert.True(t, defaulted)
		assert.Equal(t, 35, m.Age)
	})

	t.Run("no language model", func(t *testing.T) {
		_, defaulted := ExtractMember(context.Background(), nil, "I'm 30")
		assert.True(t, defaulted)
	})
}

func TestDecompose(t *testing.T) {
	c := &scriptedLLM{replies: map[string]string{
		keyDecompose: "1. Get the current price of AAPL\n\n- Assess the user's risk profile\n  Recommend a portfolio  \n",
	}}
	tasks := Decompose(context.Background(), c, "should I buy AAPL?")
	assert.Equal(t, []string{
		"Get the current price of AAPL",
		"Assess the user's risk profile",
		"Recommend a portfolio",
	}, tasks)
	require.Len(t, c.params, 1)
	assert.Equal(t, llm.DecomposeParams, c.params[0])
}

func TestDecompose_Fallback(t *testing.T) {
	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"gateway failure", &scriptedLLM{err: errors.New("503")}},
		{"blank reply", &scriptedLLM{replies: map[string]string{keyDecompose: " \n\n "}}},
		{"no language model", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := Decompose(context.Background(), tt.c, "anything")
			require.Len(t, tasks, 2)
			assert.Equal(t, DecomposeFallback, tasks)

			tasks[0] = "mutated"
			assert.Equal(t, "understand the user's need", DecomposeFallback[0])
		})
	}
}
