package http

import (
	"bytes"
	"html/template"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shipments/internal/log"
)

var templateFuncs = template.FuncMap{
	"isToday": func(date, today string) bool { return date == today },
}

// barWidth scales q to a percentage of top. Non-zero bars stay visible.
func barWidth(q, top decimal.Decimal) int {
	if !top.IsPositive() || !q.IsPositive() {
		return 0
	}
	pct, _ := q.Mul(decimal.NewFromInt(100)).Div(top).Float64()
	w := int(math.Round(pct))
	switch {
	case w < 2:
		return 2
	case w > 100:
		return 100
	}
	return w
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// renderTemplate executes name into a buffer so a failing template never
// leaves a half written page.
func (s *Server) renderTemplate(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) renderPage(c *gin.Context, status int, name string, data any) {
	body, err := s.renderTemplate(name, data)
	if err != nil {
		log.FromContext(c.Request.Context()).Error("template execution failed",
			log.Op(log.OpRender), zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "page could not be rendered")
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}
