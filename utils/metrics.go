package utils

import (
	"expvar"
)

var UploadsTotal = expvar.NewInt("uploads_total")
var UploadsRejected = expvar.NewInt("uploads_rejected_total")
var AnalysesTotal = expvar.NewInt("analyses_total")
var AnalysesFailed = expvar.NewInt("analyses_failed_total")
var GroqFallbackTotal = expvar.NewInt("groq_fallback_total")
