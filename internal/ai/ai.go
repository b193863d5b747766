package ai

import "context"

// Extractor turns a document into the model's textual table answer.
type Extractor interface {
	ExtractFromImage(ctx context.Context, mimeType string, data []byte) (string, error)
	ExtractFromText(ctx context.Context, text string) (string, error)
}

type Noop struct{}

func (Noop) ExtractFromImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	return "", nil
}

func (Noop) ExtractFromText(ctx context.Context, text string) (string, error) {
	return "", nil
}

// ImagePrompt is sent alongside the uploaded image.
const ImagePrompt = "Extract data from the uploaded image, extract the data including handwritten text, numbers and convert it to a CSV format. If possible, identify the type of data (e.g., names, dates, numbers) and structure the CSV accordingly. Also only give out the output table no other specific information is required"

// TextPrompt wraps text pulled out of a PDF.
func TextPrompt(text string) string {
	return "Extract data from the uploaded PDF text: " + text + ". Identify tables or structured data and convert it into CSV format. Do not include any other specific information."
}
