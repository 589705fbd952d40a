package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// tutorialFlagWords is the fixed number of u32 words in TUTORIAL_FLAGS.
const tutorialFlagWords = 8

// TutorialFlags marks every tutorial as already seen: eight all-ones words.
type TutorialFlags struct{}

// Write serializes the TutorialFlags payload.
func (p *TutorialFlags) Write() []byte {
	b := buffer.New(4 * tutorialFlagWords)
	for i := 0; i < tutorialFlagWords; i++ {
		b.WriteUint32(0xFFFFFFFF)
	}
	return b.Bytes()
}
