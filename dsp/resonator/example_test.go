package resonator_test

import (
	"fmt"

	"github.com/cwbudde/guardian-dsp/dsp/resonator"
)

func ExampleBank() {
	bank, err := resonator.New()
	if err != nil {
		panic(err)
	}

	frame := make([]int16, resonator.FrameSize)
	frame[0] = 16384 // impulse at 0.5

	if err := bank.Process(frame); err != nil {
		panic(err)
	}

	for ch := range resonator.NumResonators {
		hz, _ := bank.CenterFreq(ch)
		out, _ := bank.Output(ch)
		fmt.Printf("%d Hz: %v\n", hz, out[:4])
	}
	// Output:
	// 300 Hz: [120 237 229 218]
	// 800 Hz: [316 589 479 327]
	// 1500 Hz: [582 933 374 -267]
	// 2500 Hz: [948 992 -748 -1660]
}

func ExampleTable_Validate() {
	tbl := resonator.DefaultTable()
	tbl.Channels[0].CenterHz = 9000

	fmt.Println(tbl.Validate())
	// Output: resonator: invalid coefficient table: channel 0 center 9000 Hz outside (0, 8000)
}
