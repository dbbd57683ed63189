package ckd

import "fmt"

// Result is the outcome of a training run.
type Result struct {
	Artifact Artifact
	Report   Report
	NTrain   int
	NTest    int
	Location string // empty if the artifact was not saved
}

// Run executes a complete training run: it loads the data, splits it
// into a train and a test partition, fits the preprocessing and the
// model on the train partition, evaluates the model on the test
// partition and saves the artifact if c.Artifact is set.  Any error
// aborts the run.
func Run(c Config) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	missing := c.Missing
	if len(missing) == 0 {
		missing = DefaultMissing
	}
	loader := Loader{Schema: c.Schema, Missing: missing, Classes: c.Classes}
	ds, err := loader.Load(c.Data)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	counts := ds.Counts()
	Log("run: read %d records from %s (%s=%d, %s=%d)",
		ds.Len(), c.Data, ds.Classes[0], counts[0], ds.Classes[1], counts[1])
	train, test, err := Split(ds, c.TestSize, c.Seed)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	Log("run: split into %d train and %d test records", train.Len(), test.Len())
	pre, err := Fit(train)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	xtrain, err := pre.Transform(train)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	xtest, err := pre.Transform(test)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	model, err := Train(c.ModelConfig(), xtrain)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	report, err := Evaluate(model, xtest)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	Log("run: accuracy=%.4f auc=%.4f", report.Accuracy, report.AUC)
	res := Result{
		Artifact: Artifact{
			Schema:        c.Schema,
			Classes:       ds.Classes,
			Missing:       append([]string(nil), loader.Missing...),
			Preprocessing: pre,
			Model:         model,
			Report:        report,
		},
		Report: report,
		NTrain: train.Len(),
		NTest:  test.Len(),
	}
	if c.Artifact == "" {
		return res, nil
	}
	store, err := OpenStore(c.Artifact)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	if err := store.Save(res.Artifact); err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	res.Location = store.Location()
	Log("run: saved artifact to %s", res.Location)
	return res, nil
}
