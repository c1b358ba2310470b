package hotword

import "testing"

func TestZhTableReplacesLongestKeyFirst(t *testing.T) {
	table := NewZhTable(map[string]string{
		"李佳": "李佳",
		"李佳懿": "李嘉懿",
	})
	got := table.Replace("我有个同学叫李佳懿")
	want := "我有个同学叫李嘉懿"
	if got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestZhTableLeavesUnmatchedTextAlone(t *testing.T) {
	table := NewZhTable(map[string]string{"撒贝宁": "撒贝宁"})
	got := table.Replace("今天天气不错")
	if got != "今天天气不错" {
		t.Fatalf("Replace() = %q, want unchanged", got)
	}
}

func TestEnTableMatchesSpacedOutLetters(t *testing.T) {
	table := NewEnTable([]string{"ChatGPT", "Microsoft"})
	got := table.Replace("the c h a t g p t is now fully supported by microsoft")
	want := "the ChatGPT is now fully supported by Microsoft"
	if got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestEnTableDoesNotMatchInsideLongerWord(t *testing.T) {
	table := NewEnTable([]string{"AI"})
	got := table.Replace("this email stays the same")
	if got != "this email stays the same" {
		t.Fatalf("Replace() = %q, want unchanged", got)
	}
}

func TestEnTableMatchesHyphenatedCanonicalForm(t *testing.T) {
	table := NewEnTable([]string{"7-Zip"})
	got := table.Replace("7zip compresses files")
	want := "7-Zip compresses files"
	if got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestRuleTableAppliesBackreference(t *testing.T) {
	table := NewRuleTable([][2]string{
		{"毫安时", "mAh"},
		{`(\d+)赫兹`, `${1}Hz`},
	})
	got := table.Replace("这款手机有5000毫安时的大电池，国内交流电一般是50赫兹")
	want := "这款手机有5000mAh的大电池，国内交流电一般是50Hz"
	if got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestEngineRespectsEnabledFlags(t *testing.T) {
	e := NewEngine(true, false, false)
	e.current.Store(&tableSet{
		zh:   NewZhTable(map[string]string{"你好": "您好"}),
		en:   NewEnTable([]string{"hello"}),
		rule: NewRuleTable(nil),
	})
	got := e.Replace("你好 h e l l o")
	want := "您好 h e l l o"
	if got != want {
		t.Fatalf("Replace() = %q, want %q (en table disabled)", got, want)
	}
}

func TestEngineLoadFilesMissingIsNotError(t *testing.T) {
	e := NewEngine(true, true, true)
	if err := e.LoadFiles("/no/such/hot-zh.txt", "", ""); err != nil {
		t.Fatalf("LoadFiles() error = %v", err)
	}
	got := e.Replace("你好")
	if got != "你好" {
		t.Fatalf("Replace() = %q, want unchanged after empty reload", got)
	}
}
