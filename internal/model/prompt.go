package model

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert satellite imagery disaster damage assessor."

const instructions = `I'm showing you two satellite images of the same area:
1. FIRST IMAGE: PRE-DISASTER (before the event)
2. SECOND IMAGE: POST-DISASTER (after the event)

There are %d buildings in this image that I need you to classify.
Each building's location is given as a pixel bounding box [x1,y1 to x2,y2] where (0,0) is the top-left corner.

Buildings to classify:
%s
For EACH building, compare its appearance in the pre vs post image at the given pixel location and classify as:
- "no-damage": Building looks the same, roof intact, structure unchanged
- "minor-damage": Small changes visible but building is structurally intact
- "destroyed": Building is gone, reduced to rubble/ash/foundation only

You MUST use ONLY these three labels. Do NOT use "major-damage" or any other label.

CRITICAL RULES:
- Look at EACH building individually at its specific pixel location
- Not all buildings will have the same damage - examine each one carefully
- If a building has green trees and intact roof in the post image, it is "no-damage"
- If a building is clearly reduced to rubble/gray ash, it is "destroyed"
- Provide your honest best assessment for each

Return ONLY a JSON array (no markdown, no explanation):
[
  {"uid": "abc123", "damage": "destroyed", "confidence": 0.9, "description": "Reduced to ash"},
  {"uid": "def456", "damage": "no-damage", "confidence": 0.85, "description": "Roof and structure intact"}
]`

// Prompt renders the classification instructions for a batch of descriptors.
func Prompt(descriptors []Descriptor) string {
	var b strings.Builder
	for _, d := range descriptors {
		fmt.Fprintf(&b, "  - UID: %s, Location: pixel bbox %s\n", d.UID, d.Box)
	}
	return fmt.Sprintf(instructions, len(descriptors), b.String())
}
