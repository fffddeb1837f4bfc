package model

// Session holds the directory layout resolved for one boot.
type Session struct {
	BootID            uint32 `json:"boot_id"`
	FramesDir         string `json:"frames_dir"`
	BeeOverlaysDir    string `json:"bee_overlays_dir"`
	CropsDir          string `json:"crops_dir"`
	OverlaysDir       string `json:"overlays_dir"`
	OverlaysMiteDir   string `json:"overlays_mite_dir"`
	OverlaysNoMiteDir string `json:"overlays_no_mite_dir"`
	LogPath           string `json:"log_path"`
}

// CropMeta links a detection's bounding-box index to the crop written for it.
type CropMeta struct {
	BBoxIndex uint32
	Path      string
}
