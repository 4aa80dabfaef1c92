package classifier

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NEstimators = 25
	cfg.MaxDepth = 10
	cfg.MinSamplesSplit = 2
	cfg.MinSamplesLeaf = 1
	return cfg
}

func sample(marca, tipo, clase string, capacidad float64, combustible string, ruedas, total float64) Sample {
	return Sample{
		Categorical: map[string]string{
			"marca": marca, "tipo": tipo, "clase": clase, "combustible": combustible,
		},
		Numeric: map[string]float64{
			"capacidad": capacidad, "ruedas": ruedas, "total": total,
		},
	}
}

// trainingSet is a small, cleanly separable dataset: light vehicles versus
// heavy trucks.
func trainingSet() ([]Sample, []string) {
	var samples []Sample
	var labels []string
	add := func(s Sample, label string) {
		samples = append(samples, s)
		labels = append(labels, label)
	}
	for i := 0; i < 10; i++ {
		add(sample("FORD", "JEEP", "SUV", 5, "GASOLINA", 4, 20000+float64(i)*500), "LIVIANO")
		add(sample("CHEVROLET", "SEDAN", "AUTOMOVIL", 5, "GASOLINA", 4, 15000+float64(i)*400), "LIVIANO")
		add(sample("HINO", "CAMION", "CAMION", 2, "DIESEL", 6, 60000+float64(i)*1000), "PESADO")
		add(sample("ISUZU", "CAMION", "CAMION", 3, "DIESEL", 10, 80000+float64(i)*1500), "PESADO")
	}
	return samples, labels
}

func TestPipeline_FitAndPredict(t *testing.T) {
	samples, labels := trainingSet()
	p := NewPipeline(testConfig())
	p.Fit(samples, labels)

	assert.Equal(t, []string{"LIVIANO", "PESADO"}, p.Classes)

	assert.Equal(t, "LIVIANO", p.Predict(sample("FORD", "SEDAN", "AUTOMOVIL", 5, "GASOLINA", 4, 18000)))
	assert.Equal(t, "PESADO", p.Predict(sample("HINO", "CAMION", "CAMION", 2, "DIESEL", 6, 70000)))
}

func TestPipeline_ProbabilitiesSumToOne(t *testing.T) {
	samples, labels := trainingSet()
	p := NewPipeline(testConfig())
	p.Fit(samples, labels)

	probs := p.PredictProba(sample("FORD", "JEEP", "SUV", 5, "GASOLINA", 4, 21000))
	require.Len(t, probs, 2)
	sum := 0.0
	for _, v := range probs {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestPipeline_UnknownCategoryStillPredicts(t *testing.T) {
	samples, labels := trainingSet()
	p := NewPipeline(testConfig())
	p.Fit(samples, labels)

	// A brand never seen in training one-hot encodes to zeros; the numeric
	// features still carry the class.
	assert.Equal(t, "PESADO", p.Predict(sample("SCANIA", "CAMION", "CAMION", 2, "DIESEL", 10, 90000)))
}

func TestPipeline_TrainingIsDeterministic(t *testing.T) {
	samples, labels := trainingSet()

	a := NewPipeline(testConfig())
	a.Fit(samples, labels)
	b := NewPipeline(testConfig())
	b.Fit(samples, labels)

	probe := sample("FORD", "JEEP", "SUV", 5, "GASOLINA", 4, 21000)
	assert.Equal(t, a.PredictProba(probe), b.PredictProba(probe))
}

func TestPipeline_SaveLoadRoundTrip(t *testing.T) {
	samples, labels := trainingSet()
	p := NewPipeline(testConfig())
	p.Fit(samples, labels)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, p.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.Classes, loaded.Classes)
	assert.Equal(t, p.FeatureColumns, loaded.FeatureColumns)

	probe := sample("HINO", "CAMION", "CAMION", 2, "DIESEL", 6, 70000)
	assert.Equal(t, p.PredictProba(probe), loaded.PredictProba(probe))
}

func TestLoad_RejectsMissingAndIncomplete(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, (&Pipeline{}).Save(path))
	_, err = Load(path)
	assert.Error(t, err)
}
