package gemini

// extractionPrompt asks the model for the JSON shape that extract.Response
// decodes.
const extractionPrompt = `
Analyze this HRMS (Human Resource Management System) portal screenshot and extract all time tracking information.

Please identify and extract:
1. All clock-in and clock-out time pairs
2. Whether the person is currently working (look for "MISSING" or incomplete entries)
3. The last clock-in time if currently working

Return the data in this exact JSON format:
{
  "timeEntries": [
    {
      "clockIn": "9:02:55 AM",
      "clockOut": "9:06:21 AM"
    }
  ],
  "isCurrentlyWorking": true/false,
  "lastClockIn": "4:03:30 PM" (if currently working),
  "analysis": "Brief description of what you found"
}

Look for patterns like:
- Time entries with checkmarks followed by times
- Arrow symbols connecting in/out times
- "MISSING" indicating incomplete entries
- Time formats like "HH:MM:SS AM/PM" or "HH:MM AM/PM"

Be very careful to extract exact times as shown in the image.
`
