package assistant

import (
	"context"
	"strings"
)

// handler resolves one routed sub-task
type handler func(ctx context.Context, q *queryState, task string) Payload

// route is one row of the routing table
type route struct {
	category Category
	keywords []string
	handle   handler
}

// matches reports whether the lower-cased task contains any keyword
func (r route) matches(task string) bool {
	return containsAny(task, r.keywords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Routing keywords per category, English and Chinese
var (
	priceKeywords          = []string{"price", "quote", "股价", "股票价格", "价格"}
	statementKeywords      = []string{"statement", "financial report", "balance sheet", "cash flow", "income report", "财务报表", "财报"}
	metricKeywords         = []string{"metric", "ratio", "indicator", "valuation", "财务指标", "指标", "比率"}
	marketKeywords         = []string{"market", "overview", "macro", "economy", "市场"}
	recommendationKeywords = []string{"recommend", "advice", "portfolio", "strategy", "allocation", "投资建议", "投资组合", "投资策略"}
	riskKeywords           = []string{"risk assessment", "risk analysis", "assess", "risk profile", "risk tolerance", "风险评估", "风险分析"}

	// extras attached to a price task
	quoteKeywords = []string{"quote", "current", "latest", "real-time", "当前", "最新", "实时"}
	newsKeywords  = []string{"news", "headline", "新闻", "消息"}
)

// buildRoutes builds the ordered routing table; the first match wins and
// CategoryGeneric catches everything else
func (o *Orchestrator) buildRoutes() []route {
	return []route{
		{CategoryPrice, priceKeywords, o.handlePrice},
		{CategoryStatements, statementKeywords, o.handleStatements},
		{CategoryMetrics, metricKeywords, o.handleMetrics},
		{CategoryMarket, marketKeywords, o.handleMarket},
		{CategoryRecommendation, recommendationKeywords, o.handleRecommendation},
		{CategoryRisk, riskKeywords, o.handleRisk},
	}
}

// Classify returns the category a task label routes to
func Classify(task string) Category {
	lower := strings.ToLower(task)
	for _, r := range (&Orchestrator{}).buildRoutes() {
		if r.matches(lower) {
			return r.category
		}
	}
	return CategoryGeneric
}
