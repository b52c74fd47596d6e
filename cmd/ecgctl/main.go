package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/service"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

const usage = `usage: ecgctl <command> [flags]

commands:
  analyze   upload an ECG image to a running server
  classify  run the local ViT classifier on an image
  narrate   classify (or use -label) and ask the LLM for a justification
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := utils.InitLogger("release"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "classify":
		err = runClassify(ctx, os.Args[2:])
	case "narrate":
		err = runNarrate(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		utils.Logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	image := fs.String("image", "", "path to the ECG image")
	host := fs.String("host", "localhost", "API host")
	port := fs.String("port", "8005", "API port")
	_ = fs.Parse(args)

	if err := requireFile(*image); err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s:%s/api/analyze", *host, *port)
	utils.Logger.Info("sending request", zap.String("url", url))

	env, err := newAPIClient(url).Analyze(ctx, *image)
	if err != nil {
		return err
	}

	printNarrative(env.Response)
	fmt.Println("\nAPI Response Details:")
	fmt.Println("-------------------")
	fmt.Printf("Status: %s\n", env.Status)
	fmt.Printf("Status Code: %s\n", env.StatusCode)
	fmt.Printf("Time Taken: %v seconds\n", env.TimeTaken)
	return nil
}

func runClassify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	image := fs.String("image", "", "path to the ECG image")
	_ = fs.Parse(args)

	if err := requireFile(*image); err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	label, err := classifyLocal(ctx, &cfg.Classifier, *image)
	if err != nil {
		return err
	}

	fmt.Printf("\nECG Classification:\n------------------\n%s\n\n", label)
	return nil
}

func runNarrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("narrate", flag.ExitOnError)
	image := fs.String("image", "", "path to the ECG image")
	label := fs.String("label", "", "label to use instead of the ViT prediction")
	_ = fs.Parse(args)

	if err := requireFile(*image); err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	if *label == "" {
		predicted, err := classifyLocal(ctx, &cfg.Classifier, *image)
		if err != nil {
			return err
		}
		*label = string(predicted)
	}

	encoded, err := utils.ImageToBase64(*image)
	if err != nil {
		return err
	}

	client, err := service.NewLLMClient(ctx, &cfg.Narrator)
	if err != nil {
		return err
	}

	narrative, err := service.NewNarrator(client, &cfg.Narrator).Narrate(ctx, encoded, *label)
	if err != nil {
		return err
	}

	printNarrative(*narrative)
	return nil
}

func classifyLocal(ctx context.Context, cfg *config.ClassifierConfig, image string) (model.Label, error) {
	arch, err := service.LoadViTConfig(cfg.ConfigPath)
	if err != nil {
		return "", err
	}

	runtime, err := service.NewONNXRuntime(cfg, arch)
	if err != nil {
		return "", err
	}
	defer runtime.Close()

	result, err := service.NewClassifier(runtime, arch).Classify(ctx, image)
	if err != nil {
		return "", err
	}
	return result.Label, nil
}

func requireFile(path string) error {
	if path == "" {
		return fmt.Errorf("-image is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("image not found: %w", err)
	}
	return nil
}

func printNarrative(n model.NarrativeResult) {
	fmt.Println("\nECG Analysis Results")
	fmt.Println("===================")
	fmt.Printf("Decision: %s\n", n.Decision)
	fmt.Println("\nJustification:")
	fmt.Println("--------------")
	fmt.Println(n.Justification)
}
