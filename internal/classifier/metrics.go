package classifier

// ClassMetrics are the per-class evaluation numbers.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report is a classification report over a validation set.
type Report struct {
	PerClass    map[string]ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// ConfusionMatrix returns matrix[i][j] = count of class-i samples
// predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) [][]int {
	m := make([][]int, numClasses)
	for i := range m {
		m[i] = make([]int, numClasses)
	}
	for i := range yTrue {
		m[yTrue[i]][yPred[i]]++
	}
	return m
}

// ClassificationReport computes precision/recall/F1 per class plus
// accuracy, macro and support-weighted averages.
func ClassificationReport(yTrue, yPred []int, classes []string) Report {
	n := len(classes)
	tp := make([]int, n)
	fp := make([]int, n)
	fn := make([]int, n)
	support := make([]int, n)
	correct := 0

	for i := range yTrue {
		support[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
			correct++
		} else {
			fp[yPred[i]]++
			fn[yTrue[i]]++
		}
	}

	report := Report{PerClass: make(map[string]ClassMetrics, n)}
	if len(yTrue) > 0 {
		report.Accuracy = float64(correct) / float64(len(yTrue))
	}

	total := len(yTrue)
	for c, name := range classes {
		m := ClassMetrics{Support: support[c]}
		if tp[c]+fp[c] > 0 {
			m.Precision = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			m.Recall = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.PerClass[name] = m

		report.MacroAvg.Precision += m.Precision / float64(n)
		report.MacroAvg.Recall += m.Recall / float64(n)
		report.MacroAvg.F1 += m.F1 / float64(n)
		if total > 0 {
			w := float64(m.Support) / float64(total)
			report.WeightedAvg.Precision += m.Precision * w
			report.WeightedAvg.Recall += m.Recall * w
			report.WeightedAvg.F1 += m.F1 * w
		}
	}
	report.MacroAvg.Support = total
	report.WeightedAvg.Support = total
	return report
}

// AsMap renders the report in the conventional nested-dict shape: one entry
// per class plus "accuracy", "macro avg" and "weighted avg" keys.
func (r Report) AsMap() map[string]any {
	out := make(map[string]any, len(r.PerClass)+3)
	for name, m := range r.PerClass {
		out[name] = metricsMap(m)
	}
	out["accuracy"] = r.Accuracy
	out["macro avg"] = metricsMap(r.MacroAvg)
	out["weighted avg"] = metricsMap(r.WeightedAvg)
	return out
}

func metricsMap(m ClassMetrics) map[string]any {
	return map[string]any{
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1-score":  m.F1,
		"support":   m.Support,
	}
}
