package inference

// NoSpeechTranscript is the exact reply TranscriptionPrompt asks for when
// nothing can be transcribed.
const NoSpeechTranscript = "Audio is silent or contains no clear speech"

// FraudAnalysisPrompt asks for a one-word label on the first line and a short
// English justification after it.
const FraudAnalysisPrompt = `You are an analyst who screens recorded phone calls for fraud. Judge the call using only the attached audio, which is at most 60 seconds long and may be in English or an Indian language such as Hindi, Bengali, Kannada, Tamil, Telugu or Marathi. The rules below apply whatever the language.

Pick exactly one category: Fraud, Spam, Normal or Unclear/Empty.

Fraud: deception together with pressure aimed at getting money or sensitive data. Signs include:
  - The caller poses as an authority (police, CBI, TRAI, DoT, RBI, a bank's security team, tax office, a court, or a large company calling about something the listener never started).
  - Threats or extreme urgency: arrest, "digital arrest", blocked accounts, warrants, fines due immediately, Aadhaar or PAN linked to crimes.
  - Demands for Aadhaar, PAN, OTPs, passwords or full bank details, or for payment by gift card, app transfer, wire or crypto.
  - Telling the listener to stay on the line or keep the call secret.
  - Any unsolicited request for an OTP or verification code is Fraud.

Spam: unsolicited calls that try to open a new commercial relationship, such as cold sales of loans, insurance, property or subscriptions, general surveys, or prize notices that only collect contact details. A prize call that later asks for fees or bank details is Fraud.

Normal: expected or legitimate calls, including personal calls, expected customer service, delivery coordination, and a known company calling about an existing order, account or recent transaction. Such calls are Normal only when there is no unexpected payment demand, no request for sensitive data, no threat, and the caller plausibly identifies themselves. A call that starts this way and then asks for an OTP, payment or sensitive data is Fraud.

Unclear/Empty: only when the audio is silent, pure noise or unintelligible.

Reply in exactly this format:
Line 1: the category and nothing else (Fraud, Spam, Normal or Unclear/Empty).
Line 2 onward: one to three English sentences giving the main reasons. For unsolicited or vague calls labelled Normal, say why they are not Spam or Fraud.`

// TranscriptionPrompt asks for an English transcript followed by one in the
// detected source language.
const TranscriptionPrompt = `Transcribe the speech in the attached audio recording (at most 60 seconds). The speaker may use English or any Indian language such as Hindi, Bengali, Kannada, Tamil, Telugu or Marathi.

Use this layout:
1. First line: the full transcription translated into English.
2. Next line: the text "Original Language Transcription:".
3. Following line: the transcription in the main language spoken (identical to the first line if that language is English).

If the audio is silent, has no recognizable speech, or is too unclear to transcribe, reply with this single line only: ` + NoSpeechTranscript
