package service

import "fmt"

const systemPrompt = "You are a Cardiologist and your task is to analyze an ECG image and provide a detailed report."

const unlabeledPrompt = "Analyze the ECG image and provide a decision and justification."

// labeledPrompt 要求模型按固定模板解释 ViT 给出的类别
func labeledPrompt(label string) string {
	return fmt.Sprintf(`INPUT:
The label from a VIT model and an Image.

Label: The provided ECG is classified as %[1]s.
Your task is to justify that why it is classified as %[1]s

OUTPUT EXAMPLE FORMAT (very Important):
CLASS LABEL:
{
  decision: 
  Justification: 
  Remarks:
}
The above example is overall decision, justification, and Remarks.`, label)
}

func promptFor(label string) string {
	if label == "" {
		return unlabeledPrompt
	}
	return labeledPrompt(label)
}
