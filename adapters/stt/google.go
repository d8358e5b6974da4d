package stt

import (
	"context"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/nova/domain/entities"
	"github.com/satriahrh/nova/domain/repositories"
)

// GoogleRecognizer implements SpeechRecognizer on Google Cloud Speech-to-Text.
type GoogleRecognizer struct {
	logger *zap.Logger
}

var _ repositories.SpeechRecognizer = (*GoogleRecognizer)(nil)

func NewGoogleRecognizer(logger *zap.Logger) *GoogleRecognizer {
	return &GoogleRecognizer{logger: logger}
}

// Recognize sends one captured utterance through the streaming API and waits
// for the final transcript. No detected speech yields an empty transcript
// with a nil error; transport and service failures are recognition faults.
func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", entities.NewFault(entities.FaultRecognition, err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return "", entities.NewFault(entities.FaultRecognition, err)
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		return "", entities.NewFault(entities.FaultRecognition, err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		return "", entities.NewFault(entities.FaultRecognition, err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	}); err != nil {
		stream.CloseSend()
		return "", entities.NewFault(entities.FaultRecognition, err)
	}

	if err := stream.CloseSend(); err != nil {
		return "", entities.NewFault(entities.FaultRecognition, err)
	}

	resultChan := make(chan string, 1)
	errorChan := make(chan error, 1)
	go receiveTranscript(stream, resultChan, errorChan)

	select {
	case <-ctx.Done():
		return "", entities.NewFault(entities.FaultRecognition, ctx.Err())
	case err := <-errorChan:
		return "", entities.NewFault(entities.FaultRecognition, err)
	case transcript := <-resultChan:
		g.logger.Debug("Transcription completed", zap.String("text", transcript))
		return transcript, nil
	}
}

func receiveTranscript(stream speechpb.Speech_StreamingRecognizeClient, resultChan chan<- string, errorChan chan<- error) {
	var final string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			resultChan <- final
			return
		}
		if err != nil {
			errorChan <- err
			return
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				final = result.Alternatives[0].Transcript
			}
		}
	}
}

// audioEncoding converts the capture encoding name to the Speech API enum.
func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, entities.Faultf(entities.FaultRecognition, "unsupported encoding: %s", encoding)
	}
}
