package langdetect

import (
	"testing"
)

func BenchmarkIsRust(b *testing.B) {
	code := []byte(`use core::arch::asm;

pub unsafe fn read_cr3() -> u64 {
    let value: u64;
    asm!("mov {}, cr3", out(reg) value);
    value
}`)
	b.ResetTimer()
	for range b.N {
		IsRust("src/arch/x86_64/cpu.rs", code)
	}
}
