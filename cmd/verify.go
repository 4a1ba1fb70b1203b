package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/facematch"
	"github.com/kozaktomas/face-verify/internal/liveness"
	"github.com/kozaktomas/face-verify/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify one or more videos against a profile photo",
	Long: `Run the verification pipeline in-process for each --video against the
--profile photo. One JSON outcome per video is written to stdout; progress goes
to stderr. The exit code is 1 if any video ends with status "error".`,
	Example: `  face-verify verify --profile me.jpg --video clip1.mp4 --video clip2.mp4`,
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("profile", "", "Reference profile photo")
	verifyCmd.Flags().StringSlice("video", nil, "Live video to verify (repeatable)")
	verifyCmd.Flags().Bool("quiet", false, "Do not show a progress bar")
	verifyCmd.Flags().String("temp-dir", "", "Directory for staged uploads (defaults to the system temp dir)")
	_ = verifyCmd.MarkFlagRequired("profile")
	_ = verifyCmd.MarkFlagRequired("video")
}

// batchResult is one output line of the verify command.
type batchResult struct {
	Video        string                 `json:"video"`
	Status       verify.Status          `json:"status"`
	Liveness     *liveness.Verdict      `json:"liveness,omitempty"`
	Verification *facematch.MatchResult `json:"verification,omitempty"`
	Message      string                 `json:"message,omitempty"`
	ErrorCode    string                 `json:"error_code,omitempty"`
	IncidentID   string                 `json:"incident_id,omitempty"`
}

type verifier interface {
	Verify(ctx context.Context, req verify.Request) (verify.Outcome, error)
}

// toBatchResult maps a pipeline result to the same shape the HTTP API returns.
func toBatchResult(videoPath string, out verify.Outcome, err error) batchResult {
	if err == nil {
		return batchResult{
			Video:        videoPath,
			Status:       out.Status,
			Liveness:     &out.Liveness,
			Verification: &out.Verification,
		}
	}

	res := batchResult{Video: videoPath, Status: verify.StatusError}
	var clientErr *verify.ClientError
	var internalErr *verify.InternalError
	switch {
	case errors.As(err, &clientErr):
		res.Message = clientErr.Message
		res.ErrorCode = clientErr.Code
	case errors.As(err, &internalErr):
		res.Message = internalErr.Err.Error()
		res.ErrorCode = constants.ErrorCodeVerification
		res.IncidentID = internalErr.IncidentID
	default:
		res.Message = err.Error()
		res.ErrorCode = constants.ErrorCodeVerification
	}
	return res
}

// verifyFile runs the pipeline for one video file.
func verifyFile(ctx context.Context, v verifier, profilePath, videoPath string) (verify.Outcome, error) {
	profile, err := os.Open(profilePath)
	if err != nil {
		return verify.Outcome{}, fmt.Errorf("opening profile: %w", err)
	}
	defer profile.Close()

	clip, err := os.Open(videoPath)
	if err != nil {
		return verify.Outcome{}, fmt.Errorf("opening video: %w", err)
	}
	defer clip.Close()

	return v.Verify(ctx, verify.Request{
		ProfileName: filepath.Base(profilePath),
		Profile:     profile,
		VideoName:   filepath.Base(videoPath),
		Video:       clip,
	})
}

func newVerifyProgressBar(count int, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(count))
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Verifying videos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("videos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

// writeBatchResults writes one JSON line per result and reports whether any
// of them ended in an error.
func writeBatchResults(w io.Writer, results []batchResult) (bool, error) {
	enc := json.NewEncoder(w)
	failed := false
	for _, res := range results {
		if res.Status == verify.StatusError {
			failed = true
		}
		if err := enc.Encode(res); err != nil {
			return failed, fmt.Errorf("writing result: %w", err)
		}
	}
	return failed, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	profilePath := mustGetString(cmd, "profile")
	videos := mustGetStringSlice(cmd, "video")
	quiet := mustGetBool(cmd, "quiet")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	service := buildService(ctx, cfg, mustGetString(cmd, "temp-dir"))

	bar := newVerifyProgressBar(len(videos), quiet)
	results := make([]batchResult, 0, len(videos))
	for _, videoPath := range videos {
		out, err := verifyFile(ctx, service, profilePath, videoPath)
		if err != nil {
			slog.Warn("verify: video failed", "video", videoPath, "error", err)
		}
		results = append(results, toBatchResult(videoPath, out, err))
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	failed, err := writeBatchResults(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}
	if failed {
		return errors.New("one or more videos could not be verified")
	}
	return nil
}
