package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoTickerReply is what the ticker extractor is told to answer when nothing is found
const NoTickerReply = "none"

// TaskOutcome is one (label, payload) pair fed into synthesis
type TaskOutcome struct {
	Task    string
	Payload string
}

// BuildDecomposePrompt asks for 2-3 sub-task labels, one per line
func BuildDecomposePrompt(query string) string {
	return fmt.Sprintf(`Break the following investment question into 2-3 concrete sub-tasks:
"%s"
List the sub-tasks directly, one per line, without numbering or any other formatting.`, query)
}

// BuildRiskAnalysisPrompt asks for a tier and a narrative for one member
func BuildRiskAnalysisPrompt(memberJSON string) string {
	return fmt.Sprintf(`Analyze the investment risk profile of the following person:
%s
Give a risk level assessment (low, medium, or high risk) followed by a detailed risk analysis.`, memberJSON)
}

// BuildAdvicePrompt asks for a narrative advisory seeded with tier, member and market data
func BuildAdvicePrompt(tier, userJSON, marketJSON string) string {
	var sb strings.Builder
	sb.WriteString("Provide detailed investment advice for the following risk level and user data:\n")
	sb.WriteString(fmt.Sprintf("Risk level: %s\n", tier))
	sb.WriteString(fmt.Sprintf("User data: %s\n", userJSON))
	if marketJSON != "" {
		sb.WriteString(fmt.Sprintf("Market data: %s\n", marketJSON))
	}
	sb.WriteString(`
Please cover:
1. An asset allocation plan (percentage per asset class)
2. Concrete investment product suggestions
3. Strategy and points of caution
`)
	return sb.String()
}

// BuildPortfolioPrompt asks for an analysis of a list of holdings
func BuildPortfolioPrompt(portfolioJSON string) string {
	return fmt.Sprintf(`Analyze the following investment portfolio:
%s
Assess its risk level, degree of diversification and expected return, and suggest improvements.`, portfolioJSON)
}

// BuildGenericPrompt forwards a sub-task together with the query it came from
func BuildGenericPrompt(task, query string) string {
	return fmt.Sprintf("Regarding '%s', please provide a professional analysis and answer. Original question: %s", task, query)
}

// BuildSynthesisPrompt lists the query and every task outcome for the final answer
func BuildSynthesisPrompt(query string, outcomes []TaskOutcome) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User question: %s\n\nTask results:\n", query))
	for i, o := range outcomes {
		sb.WriteString(fmt.Sprintf("Task %d: %s\n", i+1, o.Task))
		sb.WriteString(fmt.Sprintf("Result: %s\n\n", o.Payload))
	}
	sb.WriteString("Write one professional, comprehensive answer based on the information above.")
	return sb.String()
}

// FormatContextAsJSON formats context as JSON for structured prompts
func FormatContextAsJSON(data any) string {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(jsonBytes)
}

// System prompts for each call site

const DecomposeSystemPrompt = `You are a financial analysis assistant who is good at breaking complex investment questions into simple sub-tasks.`

const RiskAnalysisSystemPrompt = `You are a professional investment advisor specialising in risk assessment and portfolio analysis.`

const AdviceSystemPrompt = `You are a professional investment advisor who gives personalised advice based on the client's risk preference and current market conditions.`

const PortfolioSystemPrompt = `You are a professional portfolio analyst who evaluates the risk and return characteristics of investment portfolios.`

const SynthesisSystemPrompt = `You are a professional investment advisor who explains complex financial concepts clearly. Produce one complete, professional reply based on the task results you are given.`

const TickerSystemPrompt = `You are a stock ticker extractor. Extract the most likely stock ticker from the user's text and reply with the ticker symbol only, with no other words. If there is none, reply with 'none'.`

const MemberExtractionSystemPrompt = `You are a data extractor. Extract whatever personal details the user's text contains, such as age, job, marital status, education, balance, and whether they have a housing loan or a personal loan. Reply in JSON, for example: {"age": 30, "job": "technician", "balance": 12000, "housing": true, "loan": false}. Leave out any field you are unsure about.`
