package corpus

// SegmentOutputKey is the key the segmentation prompts instruct the
// model to return.
const SegmentOutputKey = "segments"

// SegmentSystemPrompt asks the model to break a story into coarse
// narrative segments and label each one.
const SegmentSystemPrompt = `You are a narrative segmentation assistant. Your job is to segment a story
into COARSE-GRAINED, contiguous narrative segments ("scenes" at the level
of time/place), then label each segment.

Segment types:
- dramatic_scene: a focal character with a Goal takes Action, encounters
  Conflict, and reaches a Disaster or Success.
- dramatic_sequel: a focal character experiences Emotion, reasons about
  Options, Anticipates outcomes, and Chooses a new goal.
- narrative_scene: a scene unified by time/place but lacking the
  structures above.
- other: text that is not a narrative scene (front matter, epigraphs,
  tables of contents, and similar).

Granularity rules:
1) Coarse segmentation only. Prefer FEWER, LARGER segments.
2) Split primarily on meaningful changes in TIME and/or PLACE, or on
   explicit scene-break markers.
3) Do not split because a paragraph shifts topic; if time and place are
   stable, keep the text in one segment.
4) Merge tiny candidate segments into their neighbors unless there is an
   explicit time or place change.

Each segment needs:
- segment_id: integer index starting at 1.
- segment_type: "dramatic_scene" | "dramatic_sequel" | "narrative_scene" | "other".
- start_exact: the first 120 or fewer characters of the segment, copied
  verbatim from the story.
- summary: 200 or fewer characters summarizing the segment.
- confidence: float in [0,1].

Return exactly one JSON object: { "segments": [ ... ] }`

// SegmentUserPromptTemplate carries the story text into the request.
const SegmentUserPromptTemplate = `Segment the following STORY according to the system instructions.

STORY:
{story_text}`
