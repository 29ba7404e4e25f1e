package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/riskwise/internal/fallback"
	"github.com/ajitpratap0/riskwise/internal/llm"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// CommonTickers are matched in the query before asking the language model
var CommonTickers = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META", "TSLA", "NVDA"}

// DefaultMember is used when no profile can be extracted from a query
var DefaultMember = risk.Member{
	Age:     35,
	Balance: decimal.NewFromInt(10000),
	Job:     risk.UnknownCategory,
}

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// shortlist holds one whole-word matcher per CommonTickers entry, in order
var shortlist = compileShortlist(CommonTickers)

func compileShortlist(tickers []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(tickers))
	for i, t := range tickers {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return out
}

// ExtractTicker finds a ticker in text: the shortlist first, then the
// language model. Ok is false when neither produces one.
func ExtractTicker(ctx context.Context, c llm.Completer, text string) (string, bool) {
	upper := strings.ToUpper(text)
	for i, re := range shortlist {
		if re.MatchString(upper) {
			return CommonTickers[i], true
		}
	}
	if c == nil {
		return "", false
	}

	reply := fallback.Attempt(ctx, fallback.KindGateway, "assistant.extract.ticker", func(ctx context.Context) (string, error) {
		return llm.CompleteWithSystem(ctx, c, llm.TickerSystemPrompt, text, llm.Params{})
	})
	if !reply.OK {
		return "", false
	}

	ticker := strings.ToUpper(strings.Trim(strings.TrimSpace(reply.Val), "\"'`.,;:"))
	if ticker == "" || strings.EqualFold(ticker, llm.NoTickerReply) || !tickerPattern.MatchString(ticker) {
		fallback.Note(ctx, fallback.KindExtraction, "assistant.extract.ticker",
			fmt.Errorf("no ticker in reply %q", reply.Val))
		return "", false
	}
	return ticker, true
}

var tierHints = []struct {
	tier  risk.Tier
	words []string
}{
	{risk.TierLow, []string{"conservative", "low risk", "low-risk", "保守", "低风险"}},
	{risk.TierHigh, []string{"aggressive", "high risk", "high-risk", "激进", "高风险"}},
}

// ExtractTierHint maps wording in text to a tier, Medium when nothing matches
func ExtractTierHint(text string) risk.Tier {
	lower := strings.ToLower(text)
	for _, h := range tierHints {
		for _, w := range h.words {
			if strings.Contains(lower, w) {
				return h.tier
			}
		}
	}
	return risk.TierMedium
}

// extractedMember is the JSON shape the extraction prompt asks for. Absent
// fields keep the default profile's values.
type extractedMember struct {
	Age       *int             `json:"age"`
	Balance   *decimal.Decimal `json:"balance"`
	Housing   *bool            `json:"housing"`
	Loan      *bool            `json:"loan"`
	Job       *string          `json:"job"`
	Marital   *string          `json:"marital"`
	Education *string          `json:"education"`
}

// ExtractMember asks the language model for a member profile in text.
// Defaulted is true when the fixed default profile was used.
func ExtractMember(ctx context.Context, c llm.Completer, text string) (m risk.Member, defaulted bool) {
	if c == nil {
		return DefaultMember, true
	}

	parsed := fallback.Attempt(ctx, fallback.KindExtraction, "assistant.extract.member", func(ctx context.Context) (extractedMember, error) {
		var out extractedMember
		reply, err := llm.CompleteWithSystem(ctx, c, llm.MemberExtractionSystemPrompt, text, llm.Params{})
		if err != nil {
			return out, err
		}
		if err := llm.ParseJSON(reply, &out); err != nil {
			return out, err
		}
		return out, nil
	})
	if !parsed.OK {
		return DefaultMember, true
	}

	m = DefaultMember
	e := parsed.Val
	if e.Age != nil {
		m.Age = *e.Age
	}
	if e.Balance != nil {
		m.Balance = *e.Balance
	}
	if e.Housing != nil {
		m.HasHousingLoan = *e.Housing
	}
	if e.Loan != nil {
		m.HasPersonalLoan = *e.Loan
	}
	if e.Job != nil {
		m.Job = *e.Job
	}
	if e.Marital != nil {
		m.Marital = *e.Marital
	}
	if e.Education != nil {
		m.Education = *e.Education
	}

	if err := m.Validate(); err != nil {
		fallback.Note(ctx, fallback.KindExtraction, "assistant.extract.member", err)
		return DefaultMember, true
	}
	return m.Normalized(), false
}

// DecomposeFallback is used when the language model cannot split a query
var DecomposeFallback = []string{"understand the user's need", "provide a recommendation"}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// Decompose splits query into sub-task labels, one per non-empty line of the
// reply. It never fails: any problem yields DecomposeFallback.
func Decompose(ctx context.Context, c llm.Completer, query string) []string {
	if c == nil {
		return cloneFallback()
	}

	reply := fallback.Attempt(ctx, fallback.KindGateway, "assistant.decompose", func(ctx context.Context) (string, error) {
		return llm.CompleteWithSystem(ctx, c, llm.DecomposeSystemPrompt, llm.BuildDecomposePrompt(query), llm.DecomposeParams)
	})
	if !reply.OK {
		return cloneFallback()
	}

	var tasks []string
	for _, line := range strings.Split(reply.Val, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" {
			tasks = append(tasks, line)
		}
	}
	if len(tasks) == 0 {
		fallback.Note(ctx, fallback.KindExtraction, "assistant.decompose", errors.New("no sub-tasks in reply"))
		return cloneFallback()
	}
	return tasks
}

func cloneFallback() []string {
	return append([]string(nil), DecomposeFallback...)
}
