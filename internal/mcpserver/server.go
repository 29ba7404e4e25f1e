// Package mcpserver exposes risk assessment, recommendations and the
// question-answering pipeline as MCP tools.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/riskwise/internal/advisor"
	"github.com/ajitpratap0/riskwise/internal/assistant"
	"github.com/ajitpratap0/riskwise/internal/risk"
)

// Tool names
const (
	ToolAssess    = "assess_risk"
	ToolRecommend = "recommend"
	ToolAsk       = "ask"
)

// Deps are the engines behind the tools. A nil engine drops its tool.
type Deps struct {
	Classifier   *risk.Classifier
	Analyzer     *risk.Analyzer
	Advisor      *advisor.Engine
	Orchestrator *assistant.Orchestrator
}

// amount is a money value sent either as a JSON number or as a decimal
// string. Strings keep every digit; numbers arrive through float64.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = amount(s)
		return nil
	}
	*a = amount(bytes.TrimSpace(data))
	return nil
}

// Decimal parses the amount exactly
func (a amount) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(string(a)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance %q: must be a decimal number", string(a))
	}
	return d, nil
}

type assessInput struct {
	Age       int    `json:"age" jsonschema:"age in years"`
	Balance   amount `json:"balance" jsonschema:"average yearly account balance, as a number or a decimal string"`
	Housing   bool   `json:"housing,omitempty" jsonschema:"has a housing loan"`
	Loan      bool   `json:"loan,omitempty" jsonschema:"has a personal loan"`
	Job       string `json:"job,omitempty" jsonschema:"job category"`
	Marital   string `json:"marital,omitempty" jsonschema:"marital status"`
	Education string `json:"education,omitempty" jsonschema:"education level"`
	Enhanced  bool   `json:"enhanced,omitempty" jsonschema:"also ask the language model for a narrative"`
}

type recommendInput struct {
	Tier     string  `json:"tier" jsonschema:"risk tier: High, Medium or Low"`
	Age      *int    `json:"age,omitempty" jsonschema:"age in years, for personalization"`
	Balance  *amount `json:"balance,omitempty" jsonschema:"account balance for personalization, as a number or a decimal string"`
	HasLoans bool    `json:"has_loans,omitempty" jsonschema:"carries housing or personal debt"`
	Enriched bool    `json:"enriched,omitempty" jsonschema:"attach market data and narrative advice"`
}

// inputSchema infers T's schema, letting amount fields take numbers or strings
func inputSchema[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[amount](): {Types: []string{"number", "string"}},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("mcpserver: input schema: %v", err))
	}
	return s
}

type askInput struct {
	Query string `json:"query" jsonschema:"free-text investment question"`
}

// New builds the MCP server with one tool per configured engine
func New(deps Deps, version string, log zerolog.Logger) *mcp.Server {
	log = log.With().Str("component", "mcp").Logger()
	server := mcp.NewServer(&mcp.Implementation{Name: "riskwise", Version: version}, nil)

	if deps.Classifier != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolAssess,
			Description: "Classify a person's investment risk tier from age, balance and loans",
			InputSchema: inputSchema[assessInput](),
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in assessInput) (*mcp.CallToolResult, any, error) {
			balance, err := in.Balance.Decimal()
			if err != nil {
				return nil, nil, err
			}
			m := risk.Member{
				Age:             in.Age,
				Balance:         balance,
				HasHousingLoan:  in.Housing,
				HasPersonalLoan: in.Loan,
				Job:             in.Job,
				Marital:         in.Marital,
				Education:       in.Education,
			}
			if err := m.Validate(); err != nil {
				return nil, nil, err
			}
			m = m.Normalized()
			ctx = log.WithContext(ctx)

			if in.Enhanced && deps.Analyzer != nil {
				return jsonResult(deps.Analyzer.Analyze(ctx, m, nil))
			}
			return jsonResult(deps.Classifier.Classify(ctx, m))
		})
	}

	if deps.Advisor != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolRecommend,
			Description: "Personalized asset allocation for a risk tier",
			InputSchema: inputSchema[recommendInput](),
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in recommendInput) (*mcp.CallToolResult, any, error) {
			p := advisor.Profile{Age: in.Age, HasLoans: in.HasLoans}
			if in.Balance != nil {
				b, err := in.Balance.Decimal()
				if err != nil {
					return nil, nil, err
				}
				p.Balance = &b
			}
			if in.Enriched {
				return jsonResult(deps.Advisor.Enrich(log.WithContext(ctx), in.Tier, p))
			}
			return jsonResult(deps.Advisor.Personalize(in.Tier, p))
		})
	}

	if deps.Orchestrator != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolAsk,
			Description: "Answer a free-text investment question using market data, risk analysis and recommendations",
		}, func(ctx context.Context, _ *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, any, error) {
			if in.Query == "" {
				return nil, nil, errors.New("query is required")
			}
			resp := deps.Orchestrator.Process(log.WithContext(ctx), in.Query, nil)
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}}}, nil, nil
		})
	}

	return server
}

// Run serves on stdin/stdout until the client disconnects or ctx ends
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil, nil
}
