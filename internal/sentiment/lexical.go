package sentiment

import (
	"regexp"
	"strings"

	"github.com/wonny/stockpilot/internal/news"
)

var wordRe = regexp.MustCompile(`[a-z]+(?:-[a-z]+)*`)

var bullishWords = map[string]bool{
	"beat": true, "beats": true, "surge": true, "surges": true, "soar": true, "soars": true,
	"jump": true, "jumps": true, "jumped": true, "rally": true, "rallies": true, "gain": true,
	"gains": true, "record": true, "upgrade": true, "upgraded": true, "upgrades": true,
	"raise": true, "raises": true, "raised": true, "outperform": true, "bullish": true,
	"tops": true, "strong": true, "growth": true, "grows": true, "profit": true, "wins": true,
	"buyback": true, "approval": true, "approved": true, "boost": true, "boosts": true,
}

var bearishWords = map[string]bool{
	"miss": true, "misses": true, "missed": true, "cut": true, "cuts": true, "plunge": true,
	"plunges": true, "fall": true, "falls": true, "fell": true, "drop": true, "drops": true,
	"slump": true, "slumps": true, "downgrade": true, "downgraded": true, "downgrades": true,
	"lawsuit": true, "probe": true, "loss": true, "losses": true, "weak": true, "bearish": true,
	"recall": true, "layoffs": true, "warns": true, "warning": true, "concerns": true,
	"investigation": true, "decline": true, "declines": true, "sell-off": true, "selloff": true,
}

// scoreLexical scores each headline from fixed word lists:
// 0.5 + 0.5*(pos-neg)/(pos+neg), or 0.5 when no listed word appears
func scoreLexical(articles []news.Article) []HeadlineScore {
	out := make([]HeadlineScore, len(articles))
	for i, a := range articles {
		score := lexicalScore(a.Headline + " " + a.Summary)
		out[i] = HeadlineScore{Article: a, Score: score, Label: LabelFor(score)}
	}
	return out
}

func lexicalScore(text string) float64 {
	var pos, neg int
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		switch {
		case bullishWords[w]:
			pos++
		case bearishWords[w]:
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(pos-neg)/float64(pos+neg)
}
